package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Problem describes a record that will be skipped at send time.
type Problem struct {
	Index int
	ID    string
	Err   error
}

func (p Problem) String() string {
	return fmt.Sprintf("#%d (id %s): %v", p.Index, p.ID, p.Err)
}

// Bank is the ordered question sequence. It is never modified after loading.
type Bank struct {
	questions []Question
	problems  []Problem
}

// NewBank wraps questions and precomputes their validation problems.
func NewBank(questions []Question) *Bank {
	b := &Bank{questions: questions}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			b.problems = append(b.problems, Problem{Index: i, ID: q.DisplayID(), Err: err})
		}
	}
	return b
}

func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.questions)
}

func (b *Bank) At(i int) Question { return b.questions[i] }

// Problems lists the non-dispatchable records in file order.
func (b *Bank) Problems() []Problem {
	if b == nil {
		return nil
	}
	return b.problems
}

// Window returns questions[cursor : min(cursor+size, Len())].
// It is empty when cursor is at or past the end.
func (b *Bank) Window(cursor, size int) []Question {
	n := b.Len()
	if cursor < 0 {
		cursor = 0
	}
	if size <= 0 || cursor >= n {
		return nil
	}
	end := min(cursor+size, n)
	return b.questions[cursor:end]
}

// LoadFile reads the whole question file. The format is picked by
// extension: .yaml/.yml for YAML, anything else is JSON.
// A missing or malformed file is an error; invalid records are not.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	var questions []Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("parse questions %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("parse questions %s: %w", path, err)
		}
	}
	return NewBank(questions), nil
}
