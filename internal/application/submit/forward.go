package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	httpclient "careerflow/internal/common/http"
)

// ErrNotConfigured is returned when a forwarder has no target URL.
var ErrNotConfigured = errors.New("webhook url not configured")

// Forwarder relays a JSON payload (contact message, newsletter signup) to its
// webhook with the same single-attempt 2xx contract as applications.
type Forwarder struct {
	url    string
	client *httpclient.Client
}

func NewForwarder(url string, client *httpclient.Client) *Forwarder {
	return &Forwarder{url: url, client: client}
}

// Enabled reports whether a target URL is configured.
func (f *Forwarder) Enabled() bool {
	return f != nil && f.url != ""
}

// Forward posts payload and returns the correlation id sent with it.
func (f *Forwarder) Forward(ctx context.Context, payload interface{}) (string, error) {
	if !f.Enabled() {
		return "", ErrNotConfigured
	}
	id := uuid.NewString()
	if err := f.client.PostJSON(ctx, f.url, payload, map[string]string{HeaderSubmissionID: id}); err != nil {
		return id, fmt.Errorf("forward to %s: %w", f.url, err)
	}
	return id, nil
}
