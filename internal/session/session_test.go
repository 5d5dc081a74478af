package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHistoryFormatting(t *testing.T) {
	s := NewMemoryStore(5)
	id := NewID()

	s.AddExchange(id, "What is MCP?", "A protocol for model context.")
	s.AddExchange(id, "Who teaches it?", "Elie Schoppik.")

	got := s.History(id)
	want := "User: What is MCP?\n" +
		"Assistant: A protocol for model context.\n" +
		"User: Who teaches it?\n" +
		"Assistant: Elie Schoppik."
	if got != want {
		t.Errorf("History() =\n%s\nwant\n%s", got, want)
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	s := NewMemoryStore(5)
	if got := s.History(NewID()); got != "" {
		t.Errorf("History(unknown) = %q, want empty", got)
	}
}

func TestHistoryTruncation(t *testing.T) {
	s := NewMemoryStore(2)
	id := NewID()

	for i := 1; i <= 4; i++ {
		s.AddExchange(id, fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	got := s.History(id)
	if strings.Contains(got, "question 1") || strings.Contains(got, "question 2") {
		t.Errorf("old exchanges not dropped:\n%s", got)
	}
	if !strings.Contains(got, "question 3") || !strings.Contains(got, "question 4") {
		t.Errorf("recent exchanges missing:\n%s", got)
	}
}

func TestClear(t *testing.T) {
	s := NewMemoryStore(5)
	id := NewID()

	s.AddExchange(id, "q", "a")
	s.Clear(id)

	if got := s.History(id); got != "" {
		t.Errorf("History() after Clear = %q", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Clear", s.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := NewID()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AddExchange(id, "q", "a")
				_ = s.History(id)
			}
			s.Clear(id)
		}()
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Errorf("Len() = %d after all sessions cleared", s.Len())
	}
}
