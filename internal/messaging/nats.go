// Package messaging publishes post lifecycle events to NATS so other
// services (feeds, notifications, search indexers) can react to
// moderation decisions. Publishing is best-effort: a nil Publisher or a
// failed publish never affects the API operation that triggered it.
package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"questmeraki/internal/models"
)

// Subjects for post lifecycle events.
const (
	SubjectBlogSubmitted     = "blog.submitted"
	SubjectBlogStatusChanged = "blog.status_changed"
	SubjectBlogDeleted       = "blog.deleted"
)

// BlogEvent is the payload published for every lifecycle event.
type BlogEvent struct {
	BlogID    uuid.UUID `json:"blog_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher wraps a NATS connection. A nil *Publisher is valid and
// silently drops events, which keeps call sites free of nil checks.
type Publisher struct {
	conn *nats.Conn
}

// Connect establishes a NATS connection. Returns (nil, nil) when url is
// empty so the app runs without messaging configured.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	slog.Info("nats connected", "url", url)
	return &Publisher{conn: conn}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

// BlogSubmitted publishes a creation event (status pending or published,
// depending on the author's role).
func (p *Publisher) BlogSubmitted(b *models.Blog) {
	p.publish(SubjectBlogSubmitted, b)
}

// BlogStatusChanged publishes a moderation transition.
func (p *Publisher) BlogStatusChanged(b *models.Blog) {
	p.publish(SubjectBlogStatusChanged, b)
}

// BlogDeleted publishes a deletion event.
func (p *Publisher) BlogDeleted(b *models.Blog) {
	p.publish(SubjectBlogDeleted, b)
}

func (p *Publisher) publish(subject string, b *models.Blog) {
	if p == nil || p.conn == nil {
		return
	}

	payload, err := json.Marshal(BlogEvent{
		BlogID:    b.ID,
		AuthorID:  b.AuthorID,
		Title:     b.Title,
		Status:    string(b.Status),
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Warn("blog event marshal failed", "subject", subject, "error", err)
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		slog.Warn("blog event publish failed", "subject", subject, "error", err)
	}
}
