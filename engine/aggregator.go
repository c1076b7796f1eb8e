package engine

import (
	"strings"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/model"
)

// responseAggregator collects the user-facing reply text of one turn from
// streamed model events. Events whose text begins with "{" are dropped:
// some models leak raw tool-call JSON into the text stream, and that must
// never reach the user.
type responseAggregator struct {
	b strings.Builder
}

func newResponseAggregator() *responseAggregator {
	return &responseAggregator{}
}

// Consume folds one model event into the reply. It reports whether the
// event carried any text at all, before filtering, so the caller can tell
// streamed-text turns apart from tool-call-only turns.
func (a *responseAggregator) Consume(resp model.Response) bool {
	var b strings.Builder
	for _, p := range resp.Parts {
		if tp, ok := p.(core.TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	text := b.String()
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, "{") {
		return true
	}
	a.b.WriteString(text)
	return true
}

// Reply returns the accumulated reply text.
func (a *responseAggregator) Reply() string { return a.b.String() }
