// Package provider translates normalized chat requests into the wire shape
// of each backend family and extracts normalized responses.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/pkg/metrics"
	"github.com/vidiria/verilo-ai/pkg/tokens"
)

// ErrUnsupportedModel is returned when no family matches the model id.
var ErrUnsupportedModel = errors.New("unsupported model")

// UpstreamError carries a non-2xx status and body-derived detail from a
// provider backend.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Detail)
}

// Family identifies a class of backends sharing one request/response shape.
type Family string

const (
	// FamilyChatCompletion is the token-based chat completion family (GPT).
	FamilyChatCompletion Family = "chat_completion"
	// FamilySystemPrompt is the system-prompt plus message-list family (Claude).
	FamilySystemPrompt Family = "system_prompt"
	// FamilySinglePrompt is the single flattened-prompt family (Grok).
	FamilySinglePrompt Family = "single_prompt"
)

// modelFamilies is the routing table. Resolution happens once per request;
// unknown models fail here before any network call.
var modelFamilies = []struct {
	prefix string
	family Family
}{
	{"gpt", FamilyChatCompletion},
	{"claude", FamilySystemPrompt},
	{"grok", FamilySinglePrompt},
}

// Resolve maps a model id to its backend family.
func Resolve(modelID string) (Family, error) {
	for _, entry := range modelFamilies {
		if strings.Contains(modelID, entry.prefix) {
			return entry.family, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, modelID)
}

// Request is the normalized provider request, built fresh per call.
type Request struct {
	Model           string
	Messages        []model.Message
	Extended        bool
	MaxOutputTokens int
}

// Response is the normalized provider response.
type Response struct {
	ID   string
	Text string
}

// Adapter translates one Request into a family-specific payload, performs the
// call and extracts the Response. Adapters never retry; that policy belongs
// to the exchange service.
type Adapter interface {
	Family() Family
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Registry dispatches requests to the adapter registered for the resolved
// family.
type Registry struct {
	adapters map[Family]Adapter
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[Family]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Family()] = a
	}
	return &Registry{adapters: m}
}

// Complete resolves the request's family and invokes its adapter.
func (r *Registry) Complete(ctx context.Context, req *Request) (*Response, error) {
	family, err := Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	adapter, ok := r.adapters[family]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter configured for %q", ErrUnsupportedModel, req.Model)
	}

	start := time.Now()
	resp, err := adapter.Complete(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordProviderRequest(string(family), req.Model, status,
		time.Since(start).Seconds(), tokens.Estimate(req.Model, promptText(req.Messages)))

	return resp, err
}

// lastUserIndex returns the index of the final user message, or -1.
func lastUserIndex(messages []model.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return i
		}
	}
	return -1
}

// attachmentLine renders a descriptive text line for one attachment.
func attachmentLine(att model.Attachment) string {
	return fmt.Sprintf("[Anexo: %s (%s) %s]", att.Name, att.MimeType, att.URL)
}

// attachmentPayloadURL returns the attachment payload as a URL, preferring
// the external URL and falling back to an inline data URI.
func attachmentPayloadURL(att model.Attachment) string {
	if att.URL != "" {
		return att.URL
	}
	return fmt.Sprintf("data:%s;base64,%s", att.MimeType, att.Data)
}

func promptText(messages []model.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
