package question

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Bank is an in-memory set of questions keyed by id.
type Bank struct {
	mu        sync.RWMutex
	questions map[string]*Question
}

// NewBank creates a bank holding the given questions.
func NewBank(qs ...*Question) *Bank {
	b := &Bank{questions: make(map[string]*Question, len(qs))}
	for _, q := range qs {
		b.questions[q.ID] = q
	}
	return b
}

// LoadDir reads every .yaml/.yml file in dir. A missing directory yields an
// empty bank.
func LoadDir(dir string) (*Bank, error) {
	b := NewBank()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("reading question dir: %w", err)
	}

	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		q, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := b.questions[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q in %s", q.ID, e.Name())
		}
		b.questions[q.ID] = q
	}
	return b, nil
}

// LoadFile reads a single question file.
func LoadFile(path string) (*Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question %s: %w", path, err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing question %s: %w", path, err)
	}
	return q, nil
}

// Get returns the question with the given id.
func (b *Bank) Get(id string) (*Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.questions[id]
	return q, ok
}

// Add inserts or replaces a question.
func (b *Bank) Add(q *Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions[q.ID] = q
}

// List returns all questions ordered by id.
func (b *Bank) List() []*Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	qs := make([]*Question, 0, len(b.questions))
	for _, q := range b.questions {
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
	return qs
}
