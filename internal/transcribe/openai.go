package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipscribe/clipscribe/internal/apierr"
)

// OpenAIClient adapts the OpenAI API to the InferenceClient boundary:
// Whisper for audio, a chat model for text-only prompts.
type OpenAIClient struct {
	client    *openai.Client
	chatModel string
}

var _ InferenceClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI-backed inference client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(apiKey),
		chatModel: openai.GPT4oMini,
	}
}

// TranscribeAudio submits the audio file to the Whisper transcription
// endpoint. The instruction prompt is passed as a transcription hint.
func (o *OpenAIClient) TranscribeAudio(ctx context.Context, audioPath, prompt string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Prompt:   prompt,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	return resp.Text, nil
}

// GenerateText submits a text-only prompt to the chat completion endpoint.
func (o *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", apierr.ErrServer)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps API failures onto the shared retryability
// sentinels so the retry policy treats both providers uniformly.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", apierr.ErrRateLimit, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %v", apierr.ErrAuthFailed, err)
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout || apiErr.HTTPStatusCode == http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", apierr.ErrTimeout, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", apierr.ErrServer, err)
		case apiErr.HTTPStatusCode >= 400:
			return fmt.Errorf("%w: %v", apierr.ErrBadRequest, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apierr.ErrTimeout, err)
	}
	return err
}
