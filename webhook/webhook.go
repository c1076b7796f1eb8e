// Package webhook exposes the HTTP surface that receives inbound WhatsApp
// messages from Twilio, runs a conversation turn and sends the reply back.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/history"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/transcribe"
)

// transcriptionFallback is sent to the model when a voice note cannot be
// transcribed, so the assistant can apologize instead of failing the turn.
const transcriptionFallback = "[Voice message received but could not be transcribed]"

// TurnRunner runs one conversation turn. Implemented by engine.Engine.
type TurnRunner interface {
	RunTurn(ctx context.Context, threadID, text string) (string, error)
}

// Notifier sends the reply back to the user.
type Notifier interface {
	Send(ctx context.Context, to, from, body string) error
}

// Options configures the webhook handler.
type Options struct {
	Runner      TurnRunner
	Notifier    Notifier
	History     history.Store          // optional; records inbound and outbound traffic
	Transcriber transcribe.Transcriber // optional; voice notes fall back to a placeholder without it

	// TwilioAccountSID and TwilioAuthToken authenticate media downloads.
	TwilioAccountSID string
	TwilioAuthToken  string

	Logger     logging.Logger
	HTTPLogger *httplog.Logger // optional request logging middleware
}

// Handler is the HTTP handler for the Twilio message webhook.
type Handler struct {
	opts       Options
	logger     logging.Logger
	httpClient *http.Client
}

// NewHandler creates a webhook handler.
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Handler{
		opts:       opts,
		logger:     opts.Logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Router builds the chi router for the webhook endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if h.opts.HTTPLogger != nil {
		r.Use(httplog.RequestLogger(h.opts.HTTPLogger))
	}
	r.Get("/health", h.handleHealth)
	r.Post("/message", h.handleMessage)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMessage processes one inbound Twilio message. The sender's phone
// number doubles as the conversation thread id.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form payload"})
		return
	}

	from := r.PostFormValue("From")
	to := r.PostFormValue("To")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing From or To"})
		return
	}

	body := r.PostFormValue("Body")
	mediaURL := r.PostFormValue("MediaUrl0")
	mediaType := r.PostFormValue("MediaContentType0")

	if mediaURL != "" && strings.HasPrefix(mediaType, "audio/") {
		body = h.transcribeMedia(r.Context(), mediaURL, mediaType)
	}
	if body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty message"})
		return
	}

	h.logger.Info("message received", "from", from, "chars", len(body))
	h.record(r.Context(), from, to, body, history.TypeUser)

	reply, err := h.opts.Runner.RunTurn(r.Context(), from, body)
	if err != nil {
		h.logger.Error("turn failed", "from", from, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to process message"})
		return
	}

	// Twilio rejects empty message bodies, so a turn that produced no reply
	// text sends nothing.
	if reply == "" {
		h.logger.Warn("turn produced no reply", "from", from)
		writeJSON(w, http.StatusOK, map[string]string{"status": "No response generated"})
		return
	}

	h.record(r.Context(), to, from, reply, history.TypeAssistant)

	if err := h.opts.Notifier.Send(r.Context(), from, to, reply); err != nil {
		h.logger.Error("reply delivery failed", "to", from, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send reply"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "Message sent"})
}

// transcribeMedia downloads a voice note from Twilio and transcribes it.
// Any failure degrades to a placeholder the model can respond to.
func (h *Handler) transcribeMedia(ctx context.Context, mediaURL, mediaType string) string {
	if h.opts.Transcriber == nil {
		return transcriptionFallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		h.logger.Warn("building media request failed", "error", err)
		return transcriptionFallback
	}
	req.SetBasicAuth(h.opts.TwilioAccountSID, h.opts.TwilioAuthToken)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn("media download failed", "url", mediaURL, "error", err)
		return transcriptionFallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("media download failed", "url", mediaURL, "status", resp.StatusCode)
		return transcriptionFallback
	}

	text, err := h.opts.Transcriber.Transcribe(ctx, resp.Body, mediaType)
	if err != nil || text == "" {
		h.logger.Warn("transcription failed", "error", err)
		return transcriptionFallback
	}
	return text
}

func (h *Handler) record(ctx context.Context, from, to, content, recordType string) {
	if h.opts.History == nil {
		return
	}
	rec := history.NewRecord(from, to, content, recordType)
	if err := h.opts.History.Append(ctx, rec); err != nil {
		// History is an audit trail; losing a record must not fail the turn.
		h.logger.Warn("history append failed", "from", from, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
