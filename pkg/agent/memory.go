package agent

import (
	"slices"
	"sync"
)

// Memory keeps the latest final utterances of a session so a run can see
// what was said before the utterance it analyzes. It is safe for
// concurrent use.
type Memory struct {
	mu    sync.Mutex
	turns int
	lines []string
}

// NewMemory returns a Memory holding up to turns utterances. A Memory with
// turns <= 0 remembers nothing.
func NewMemory(turns int) *Memory {
	return &Memory{turns: turns}
}

// Add records an utterance.
func (m *Memory) Add(line string) {
	if m == nil || m.turns <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
	if len(m.lines) > m.turns {
		m.lines = slices.Clone(m.lines[len(m.lines)-m.turns:])
	}
}

// Recent returns the utterances remembered before current, oldest first.
// When current is not remembered, all utterances are returned.
func (m *Memory) Recent(current string) []string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.lines) - 1; i >= 0; i-- {
		if m.lines[i] == current {
			return slices.Clone(m.lines[:i])
		}
	}
	return slices.Clone(m.lines)
}

// Reset forgets everything.
func (m *Memory) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
}
