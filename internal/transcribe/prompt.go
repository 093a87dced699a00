package transcribe

import "fmt"

// wholeFilePrompt is the fixed instruction for transcribing a complete artifact.
const wholeFilePrompt = "Create a complete transcription of this audio. " +
	"Pay special attention to the first 5 minutes of the audio - ignore and exclude " +
	"any song lyrics, musical intros, and background music that often appear at the " +
	"beginning of videos. Throughout the entire audio, focus only on speech and " +
	"dialogues. Return only the transcription text without any comments."

// segmentPrompt is the fixed instruction for transcribing one segment.
const segmentPrompt = "Create a complete transcription of this audio segment. " +
	"Pay special attention to the first 5 minutes of the audio - ignore and exclude " +
	"any song lyrics, musical intros, and background music that often appear at the " +
	"beginning of videos. Throughout the entire audio, focus only on speech and " +
	"dialogues. Return only the transcription text without any comments."

// metadataPrompt asks the service to transcribe by reference instead of from
// uploaded bytes. Used only by the metadata-only fallback strategy.
func metadataPrompt(title, sourceID, sourceURL string) string {
	return fmt.Sprintf(`I want you to act as a transcriber for audio from an online video.

Video: %q (ID: %s)
URL: %s

Task:
1. Watch the video at the URL
2. Create an accurate text transcription of the audio content
3. Return only the transcription text without additional comments`,
		title, sourceID, sourceURL)
}

// segmentFailurePlaceholder is the literal line substituted for a segment
// whose transcription attempts were exhausted.
func segmentFailurePlaceholder(partNumber int) string {
	return fmt.Sprintf("[Error transcribing part %d]", partNumber)
}
