// Package transcribe converts voice notes to text so audio messages can be
// handled like any other inbound text.
package transcribe

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
)

// Transcriber converts an audio stream to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error)
}

// WhisperTranscriber implements Transcriber using the OpenAI Whisper API.
type WhisperTranscriber struct {
	client openai.Client
	logger logging.Logger
}

// NewWhisperTranscriber creates a Whisper-backed transcriber.
func NewWhisperTranscriber(apiKey string, logger logging.Logger) *WhisperTranscriber {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &WhisperTranscriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: logger,
	}
}

// NewWhisperTranscriberFromClient wraps an existing client. Used by tests.
func NewWhisperTranscriberFromClient(client openai.Client, logger logging.Logger) *WhisperTranscriber {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &WhisperTranscriber{client: client, logger: logger}
}

// Transcribe sends the audio to Whisper and returns the recognized text.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error) {
	filename := filenameFor(contentType)

	result, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(audio, filename, contentType),
	})
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	t.logger.Debug("audio transcribed", "content_type", contentType, "chars", len(result.Text))
	return result.Text, nil
}

// filenameFor gives the upload a file extension matching its media type,
// which the API uses to pick a decoder.
func filenameFor(contentType string) string {
	switch contentType {
	case "audio/ogg", "application/ogg":
		return "audio.ogg"
	case "audio/mpeg", "audio/mp3":
		return "audio.mp3"
	case "audio/mp4", "audio/m4a":
		return "audio.m4a"
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	case "audio/webm":
		return "audio.webm"
	default:
		return "audio.ogg"
	}
}
