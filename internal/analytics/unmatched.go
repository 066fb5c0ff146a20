package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// UnmatchedLog counts canonical inputs that fell through every pattern
// rule. The frequency map is the raw material for new rules and
// synonyms.
type UnmatchedLog struct {
	mu     sync.Mutex
	path   string
	counts map[string]int64
}

// NewUnmatchedLog loads the frequency map at path, starting empty when
// the file does not exist.
func NewUnmatchedLog(path string) (*UnmatchedLog, error) {
	l := &UnmatchedLog{path: path, counts: make(map[string]int64)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to read unmatched log %s: %w", path, err)
	}
	if len(raw) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(raw, &l.counts); err != nil {
		return nil, fmt.Errorf("failed to parse unmatched log %s: %w", path, err)
	}
	return l, nil
}

// Record bumps the counter for one canonical input.
func (l *UnmatchedLog) Record(canonical string) error {
	if canonical == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts[canonical]++
	raw, err := json.MarshalIndent(l.counts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal unmatched log: %w", err)
	}
	return atomicWrite(l.path, raw)
}

// UnmatchedInput is one entry of the frequency report.
type UnmatchedInput struct {
	Text  string `json:"text"`
	Count int64  `json:"count"`
}

// Top returns the most frequent unmatched inputs, highest count first.
func (l *UnmatchedLog) Top(n int) []UnmatchedInput {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := make([]UnmatchedInput, 0, len(l.counts))
	for text, count := range l.counts {
		all = append(all, UnmatchedInput{Text: text, Count: count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Text < all[j].Text
	})

	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
