package store

import (
	"time"

	"contactiq-be/pkg/pipeline"
)

// HistoryWindow caps how many prior turns travel with a classification call.
const HistoryWindow = 5

// Session represents the active conversation state for one user.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Mode   string `json:"mode"` // "customer" | "banker"

	// History holds prior exchanges, oldest first.
	History []pipeline.Turn `json:"history"`

	// EscalationStreak counts consecutive escalated turns in this session.
	EscalationStreak int `json:"escalation_streak"`

	LastQuery  string    `json:"last_query"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// AppendTurn records one exchange and keeps the window for the classifier.
func (s *Session) AppendTurn(query, response string) {
	s.History = append(s.History,
		pipeline.Turn{Role: "user", Content: query},
		pipeline.Turn{Role: "assistant", Content: response},
	)
	if max := HistoryWindow * 2; len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
	s.LastQuery = query
	s.LastSeenAt = time.Now()
}

// RecentHistory returns the classification window, oldest first.
func (s *Session) RecentHistory() []pipeline.Turn {
	return s.History
}

// SessionStore abstracts session state so a single instance can use an
// in-process cache and a multi-instance deployment can share Redis.
type SessionStore interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}
