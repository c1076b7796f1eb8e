package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

func collect(t *testing.T, respCh <-chan Response, errCh <-chan error) []Response {
	t.Helper()
	var responses []Response
	for resp := range respCh {
		responses = append(responses, resp)
	}
	require.NoError(t, <-errCh)
	return responses
}

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("hi", "hello there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewTextMessage(core.RoleUser, "hi")},
	})
	responses := collect(t, respCh, errCh)
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "hello there", responses[0].Parts[0].(core.TextPart).Text)
}

func TestMockModel_StreamingEmitsPartialsThenFinal(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("hi", "abc")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewTextMessage(core.RoleUser, "hi")},
		Stream:   true,
	})
	responses := collect(t, respCh, errCh)
	require.Len(t, responses, 4)

	var streamed string
	for _, resp := range responses[:3] {
		assert.True(t, resp.Partial)
		streamed += resp.Parts[0].(core.TextPart).Text
	}
	assert.Equal(t, "abc", streamed)
	assert.False(t, responses[3].Partial)
	assert.Equal(t, "stop", responses[3].FinishReason)
}

func TestMockModel_NoMessagesIsAnError(t *testing.T) {
	m := NewMockModel("test", "mock")
	respCh, errCh := m.Generate(context.Background(), Request{})
	for range respCh {
	}
	assert.Error(t, <-errCh)
}
