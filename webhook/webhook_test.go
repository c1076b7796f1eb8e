package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/history"
)

type stubRunner struct {
	reply    string
	err      error
	threadID string
	text     string
}

func (s *stubRunner) RunTurn(ctx context.Context, threadID, text string) (string, error) {
	s.threadID = threadID
	s.text = text
	return s.reply, s.err
}

type stubNotifier struct {
	to, from, body string
	err            error
}

func (s *stubNotifier) Send(ctx context.Context, to, from, body string) error {
	s.to, s.from, s.body = to, from, body
	return s.err
}

type stubHistory struct {
	records []history.Record
}

func (s *stubHistory) Append(ctx context.Context, rec history.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *stubHistory) Query(ctx context.Context, a, b string, limit int) ([]history.Record, error) {
	return nil, nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error) {
	return s.text, s.err
}

func postForm(t *testing.T, router http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleMessage_TextTurn(t *testing.T) {
	runner := &stubRunner{reply: "Hello! How can I help?"}
	notifier := &stubNotifier{}
	hist := &stubHistory{}

	h := NewHandler(Options{Runner: runner, Notifier: notifier, History: hist})
	rec := postForm(t, h.Router(), url.Values{
		"From": {"whatsapp:+5551112222"},
		"To":   {"whatsapp:+5550000000"},
		"Body": {"hi there"},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Message sent", resp["status"])

	assert.Equal(t, "whatsapp:+5551112222", runner.threadID)
	assert.Equal(t, "hi there", runner.text)

	assert.Equal(t, "whatsapp:+5551112222", notifier.to)
	assert.Equal(t, "whatsapp:+5550000000", notifier.from)
	assert.Equal(t, "Hello! How can I help?", notifier.body)

	require.Len(t, hist.records, 2)
	assert.Equal(t, history.TypeUser, hist.records[0].Type)
	assert.Equal(t, "hi there", hist.records[0].Content)
	assert.Equal(t, history.TypeAssistant, hist.records[1].Type)
	assert.Equal(t, "Hello! How can I help?", hist.records[1].Content)
}

func TestHandleMessage_MissingAddressesRejected(t *testing.T) {
	h := NewHandler(Options{Runner: &stubRunner{}, Notifier: &stubNotifier{}})
	rec := postForm(t, h.Router(), url.Values{"Body": {"hi"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessage_EmptyBodyRejected(t *testing.T) {
	h := NewHandler(Options{Runner: &stubRunner{}, Notifier: &stubNotifier{}})
	rec := postForm(t, h.Router(), url.Values{
		"From": {"whatsapp:+111"},
		"To":   {"whatsapp:+999"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessage_EmptyReplySendsNothing(t *testing.T) {
	notifier := &stubNotifier{}
	hist := &stubHistory{}
	h := NewHandler(Options{Runner: &stubRunner{reply: ""}, Notifier: notifier, History: hist})

	rec := postForm(t, h.Router(), url.Values{
		"From": {"whatsapp:+111"},
		"To":   {"whatsapp:+999"},
		"Body": {"hi"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No response generated", resp["status"])

	// No outbound message and no assistant history record.
	assert.Empty(t, notifier.to)
	require.Len(t, hist.records, 1)
	assert.Equal(t, history.TypeUser, hist.records[0].Type)
}

func TestHandleMessage_EngineErrorYields500(t *testing.T) {
	runner := &stubRunner{err: errors.New("model unavailable")}
	notifier := &stubNotifier{}
	h := NewHandler(Options{Runner: runner, Notifier: notifier})

	rec := postForm(t, h.Router(), url.Values{
		"From": {"whatsapp:+111"},
		"To":   {"whatsapp:+999"},
		"Body": {"hi"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, notifier.body)
}

func TestHandleMessage_NotifierErrorYields500(t *testing.T) {
	h := NewHandler(Options{
		Runner:   &stubRunner{reply: "hi"},
		Notifier: &stubNotifier{err: errors.New("twilio down")},
	})
	rec := postForm(t, h.Router(), url.Values{
		"From": {"whatsapp:+111"},
		"To":   {"whatsapp:+999"},
		"Body": {"hi"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleMessage_AudioIsTranscribed(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		w.Write([]byte("fake-ogg-bytes"))
	}))
	defer media.Close()

	runner := &stubRunner{reply: "Got your voice note!"}
	h := NewHandler(Options{
		Runner:           runner,
		Notifier:         &stubNotifier{},
		Transcriber:      &stubTranscriber{text: "remind me to call mom"},
		TwilioAccountSID: "AC123",
		TwilioAuthToken:  "secret",
	})

	rec := postForm(t, h.Router(), url.Values{
		"From":              {"whatsapp:+111"},
		"To":                {"whatsapp:+999"},
		"MediaUrl0":         {media.URL + "/media/1"},
		"MediaContentType0": {"audio/ogg"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remind me to call mom", runner.text)
}

func TestHandleMessage_TranscriptionFailureFallsBack(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-ogg-bytes"))
	}))
	defer media.Close()

	runner := &stubRunner{reply: "Sorry, I couldn't hear that."}
	h := NewHandler(Options{
		Runner:      runner,
		Notifier:    &stubNotifier{},
		Transcriber: &stubTranscriber{err: errors.New("whisper unavailable")},
	})

	rec := postForm(t, h.Router(), url.Values{
		"From":              {"whatsapp:+111"},
		"To":                {"whatsapp:+999"},
		"MediaUrl0":         {media.URL + "/media/1"},
		"MediaContentType0": {"audio/ogg"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, transcriptionFallback, runner.text)
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(Options{Runner: &stubRunner{}, Notifier: &stubNotifier{}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
