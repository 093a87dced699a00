package acquire

import "strings"

// TrackCandidate is a read-only view over one selectable audio encoding
// offered by a source video.
type TrackCandidate struct {
	// FormatID is the source-side identifier used to request this stream.
	FormatID string
	// AudioOnly is true for streams carrying audio and no video.
	AudioOnly bool
	// Language is the track's language code, empty when the source reports none.
	Language string
	// IsDefault marks the track the source plays by default.
	IsDefault bool
	// DisplayName is the human-readable track label, empty when absent.
	DisplayName string
	// Bitrate is the audio bitrate in kbps, zero when unknown.
	Bitrate int
}

// SelectTrack picks the single best audio track from candidates.
// Non-audio-only candidates are ignored. Selection precedence, first match wins:
//
//  1. display name contains both "English" and "original" and the track is default
//  2. any default track
//  3. any track whose display name or language code indicates English
//  4. any track with no language metadata (single-track originals)
//  5. the highest-bitrate candidate
//
// Pure and deterministic over its input. Returns false when no audio-only
// candidate exists.
func SelectTrack(candidates []TrackCandidate) (TrackCandidate, bool) {
	audio := make([]TrackCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AudioOnly {
			audio = append(audio, c)
		}
	}
	if len(audio) == 0 {
		return TrackCandidate{}, false
	}

	// Rule 1: original English default track.
	for _, c := range audio {
		if c.IsDefault &&
			strings.Contains(c.DisplayName, "English") &&
			strings.Contains(c.DisplayName, "original") {
			return c, true
		}
	}

	// Rule 2: any default track.
	for _, c := range audio {
		if c.IsDefault {
			return c, true
		}
	}

	// Rule 3: any English track.
	for _, c := range audio {
		if strings.Contains(c.DisplayName, "English") || isEnglishCode(c.Language) {
			return c, true
		}
	}

	// Rule 4: no language metadata means a single-track original.
	for _, c := range audio {
		if c.Language == "" {
			return c, true
		}
	}

	// Rule 5: highest bitrate, first wins on ties.
	best := audio[0]
	for _, c := range audio[1:] {
		if c.Bitrate > best.Bitrate {
			best = c
		}
	}
	return best, true
}

// isEnglishCode reports whether a language code denotes English.
func isEnglishCode(code string) bool {
	return code == "en" || code == "eng"
}
