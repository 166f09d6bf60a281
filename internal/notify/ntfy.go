package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

const userAgent = "stagegate/1"

// Ntfy pushes notifications to an ntfy server, one topic per user at
// <base>/<username>.
type Ntfy struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// NewNtfy returns nil when baseURL is empty, which Fanout skips.
func NewNtfy(baseURL string, timeout time.Duration, logger *slog.Logger) *Ntfy {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ntfy{base: baseURL, client: &http.Client{Timeout: timeout}, logger: logger}
}

// Publish sends n and logs failures; push delivery never fails the caller.
func (p *Ntfy) Publish(ctx context.Context, n *domain.Notification) {
	if err := p.Send(ctx, n); err != nil {
		p.logger.Warn("ntfy push failed", "user", n.Recipient, "kind", string(n.Kind), "error", err)
	}
}

// Send posts n to the recipient's topic.
func (p *Ntfy) Send(ctx context.Context, n *domain.Notification) error {
	endpoint := p.base + "/" + url.PathEscape(n.Recipient)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(n.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.Title != "" {
		req.Header.Set("Title", n.Title)
	}
	req.Header.Set("Tags", "stagegate,"+string(n.Kind))
	if n.Kind == domain.NotifyDueSoon {
		req.Header.Set("Priority", "high")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Publisher is the delivery surface shared by Hub, Ntfy and Fanout.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification)
}

// Fanout publishes to each non-nil publisher in turn.
type Fanout []Publisher

func NewFanout(publishers ...Publisher) Fanout {
	out := make(Fanout, 0, len(publishers))
	for _, p := range publishers {
		switch v := p.(type) {
		case nil:
			continue
		case *Ntfy:
			if v == nil {
				continue
			}
		case *Hub:
			if v == nil {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func (f Fanout) Publish(ctx context.Context, n *domain.Notification) {
	for _, p := range f {
		p.Publish(ctx, n)
	}
}
