package ai

import (
	"context"
	"encoding/base64"
	"io"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// TextGenerator produces free-form text for a prompt. The output carries no
// structural contract; callers are responsible for tolerant extraction.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator produces a binary image blob for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Voice maps a character name to the synthesis voice used for their lines.
type Voice struct {
	Name    string
	VoiceID string
}

// SpeechGenerator synthesizes an audio blob for a dialogue script.
type SpeechGenerator interface {
	GenerateAudio(ctx context.Context, script string, voices []Voice) ([]byte, error)
}

type Client struct {
	client *openai.Client
}

func NewClient(apiKey string) Client {
	return Client{
		client: openai.NewClient(apiKey),
	}
}

const MaxTokens = 4096

// Generate runs a single chat completion and returns the raw assistant text.
func (c Client) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     openai.GPT4TurboPreview,
			MaxTokens: MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// GenerateImage synthesizes a portrait image and returns the PNG bytes.
func (c Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := c.client.CreateImage(
		ctx,
		openai.ImageRequest{ //nolint:exhaustruct // this is better for readability
			Prompt:         prompt,
			Model:          openai.CreateImageModelDallE3,
			Size:           openai.CreateImageSize1024x1024,
			ResponseFormat: openai.CreateImageResponseFormatB64JSON,
			N:              1,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("image generation returned no data")
	}
	blob, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, errors.Wrap(err, "decode image payload")
	}
	return blob, nil
}

// GenerateAudio synthesizes a dialogue script into a single audio blob. The
// first voice in voices narrates the whole script since the interrogation
// scripts are written in one suspect's voice.
func (c Client) GenerateAudio(ctx context.Context, script string, voices []Voice) ([]byte, error) {
	voice := openai.VoiceAlloy
	if len(voices) > 0 && voices[0].VoiceID != "" {
		voice = openai.SpeechVoice(voices[0].VoiceID)
	}
	resp, err := c.client.CreateSpeech(
		ctx,
		openai.CreateSpeechRequest{ //nolint:exhaustruct // this is better for readability
			Model: openai.TTSModel1,
			Input: script,
			Voice: voice,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create speech")
	}
	defer func() {
		_ = resp.Close()
	}()
	blob, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(err, "read speech payload")
	}
	return blob, nil
}
