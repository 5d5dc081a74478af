// Package session tracks per-conversation history so follow-up questions keep
// their context across requests.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Exchange is one completed question/answer round.
type Exchange struct {
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Store is the conversation history the generator consults. Implementations
// must be safe for concurrent use.
type Store interface {
	// AddExchange appends a completed round to the session, creating the
	// session if needed.
	AddExchange(id uuid.UUID, question, answer string)

	// History renders the session's retained exchanges as alternating
	// "User:"/"Assistant:" lines. An unknown session yields "".
	History(id uuid.UUID) string

	// Clear removes the session entirely.
	Clear(id uuid.UUID)
}

// MemoryStore keeps session history in process memory, bounded to the most
// recent maxHistory exchanges per session.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID][]Exchange
	maxHistory int
}

// NewMemoryStore creates a MemoryStore retaining at most maxHistory exchanges
// per session. Non-positive values fall back to 2.
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &MemoryStore{
		sessions:   make(map[uuid.UUID][]Exchange),
		maxHistory: maxHistory,
	}
}

// NewID allocates a fresh session identifier.
func NewID() uuid.UUID { return uuid.New() }

// AddExchange appends a round and drops the oldest entries beyond the
// retention bound.
func (s *MemoryStore) AddExchange(id uuid.UUID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[id], Exchange{
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now(),
	})
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.sessions[id] = history
}

// History formats the retained exchanges oldest first.
func (s *MemoryStore) History(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[id]
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history)*2)
	for _, ex := range history {
		lines = append(lines, "User: "+ex.Question, "Assistant: "+ex.Answer)
	}
	return strings.Join(lines, "\n")
}

// Clear removes a session and its history.
func (s *MemoryStore) Clear(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions currently hold history.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
