// Package session keeps the linear transcript of an interactive threat
// modeling conversation.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// Synthetic assistant replies.
const (
	Apology        = "Sorry, I couldn't answer that. Please try again."
	ContextReceipt = "I've reviewed the provided context and will use it to answer your questions."
)

// ErrEmptyQuery is returned for blank queries, which are not sent.
var ErrEmptyQuery = errors.New("query is empty")

// Querier answers a query given the prior conversation.
type Querier interface {
	InteractiveQuery(ctx context.Context, query string, history []models.ChatMessage) (string, error)
}

// Session is an append-only conversation. It is not safe for concurrent use;
// one query is in flight at a time.
type Session struct {
	querier Querier
	logger  logger.Logger
	now     func() time.Time
	id      string
	history []models.ChatMessage
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) {
		s.logger = log
	}
}

// WithContext seeds the conversation with a context document.
func WithContext(content string) Option {
	return func(s *Session) {
		s.AddContext(content)
	}
}

// New starts an empty session over q.
func New(q Querier, opts ...Option) *Session {
	s := &Session{
		querier: q,
		logger:  logger.GetGlobalLogger(),
		now:     time.Now,
		id:      uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID identifies the session.
func (s *Session) ID() string {
	return s.id
}

// AddContext records content as a user turn followed by a synthetic
// acknowledgement. Blank content is ignored.
func (s *Session) AddContext(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	s.append(models.RoleUser, "Here is context about the system under review:\n\n"+content)
	s.append(models.RoleAssistant, ContextReceipt)
}

// Ask sends query with the full history so far. On success the query and
// the reply are appended. On failure the query and an apology are appended
// and the error is returned.
func (s *Session) Ask(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	prior := s.History()
	s.append(models.RoleUser, query)

	start := s.now()
	reply, err := s.querier.InteractiveQuery(ctx, query, prior)
	if err != nil {
		s.append(models.RoleAssistant, Apology)
		s.logger.Warn("Interactive query failed", "turns", len(s.history), "error", err)
		return "", fmt.Errorf("interactive query: %w", err)
	}

	s.append(models.RoleAssistant, reply)
	s.logger.Debug("Interactive query answered", "turns", len(s.history), "duration", s.now().Sub(start))
	return reply, nil
}

// History returns a copy of the transcript.
func (s *Session) History() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	return len(s.history)
}

// Transcript formats the history one message per block.
func (s *Session) Transcript() string {
	var b strings.Builder
	for i, msg := range s.history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.Role, msg.Content)
	}
	return b.String()
}

func (s *Session) append(role models.Role, content string) {
	s.history = append(s.history, models.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
}
