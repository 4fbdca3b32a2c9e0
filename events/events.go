// Package events publishes fire-and-forget domain notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the service.
const (
	SubjectBlogCreated  = "blog.created"
	SubjectBlogLiked    = "blog.liked"
	SubjectBlogReported = "blog.reported"
	SubjectUserFollowed = "user.followed"
)

// Publisher delivers events. Implementations never block the caller on
// delivery and never return delivery failures.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any)
	Close()
}

// BlogCreated is published after a blog is created.
type BlogCreated struct {
	BlogID    string    `json:"blog_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

// BlogLiked is published after a like toggle.
type BlogLiked struct {
	BlogID    string    `json:"blog_id"`
	UserID    string    `json:"user_id"`
	Liked     bool      `json:"liked"`
	Likes     int       `json:"likes"`
	Timestamp time.Time `json:"timestamp"`
}

// BlogReported is published after a report is filed.
type BlogReported struct {
	BlogID    string    `json:"blog_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// UserFollowed is published after a follow toggle.
type UserFollowed struct {
	FollowerID string    `json:"follower_id"`
	TargetID   string    `json:"target_id"`
	Following  bool      `json:"following"`
	Timestamp  time.Time `json:"timestamp"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}
func (Nop) Close()                               {}

// conn is the subset of *nats.Conn used by NATS.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATS publishes JSON encoded events on a NATS connection.
type NATS struct {
	nc  conn
	log *zap.Logger
}

// Connect dials url and returns a NATS publisher.
func Connect(url string, log *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("inkpress"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newNATS(nc, log), nil
}

func newNATS(nc conn, log *zap.Logger) *NATS {
	if log == nil {
		log = zap.NewNop()
	}
	return &NATS{nc: nc, log: log}
}

// Publish encodes payload and hands it to the client's outbound buffer.
// Failures are logged.
func (p *NATS) Publish(_ context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("encode event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Close flushes pending events and closes the connection.
func (p *NATS) Close() {
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("drain nats", zap.Error(err))
	}
}
