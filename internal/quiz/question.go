package quiz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Telegram quiz polls accept between 2 and 10 options.
const (
	MinOptions = 2
	MaxOptions = 10
)

const (
	DefaultTopic = "General Knowledge"
	missingID    = "N/A"
)

var (
	ErrInvalidLetter = errors.New("answer must be a single letter a-j")
	ErrAnswerRange   = errors.New("answer does not match any option")
	ErrOptionCount   = fmt.Errorf("quiz polls need %d to %d options", MinOptions, MaxOptions)
	ErrEmptyQuestion = errors.New("question text is empty")
)

// answerLetters maps answer letters to zero-based option indexes.
var answerLetters = map[string]int{
	"a": 0, "b": 1, "c": 2, "d": 3, "e": 4,
	"f": 5, "g": 6, "h": 7, "i": 8, "j": 9,
}

// ParseLetter resolves an answer letter (case-insensitive) to its option index.
func ParseLetter(s string) (int, error) {
	idx, ok := answerLetters[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLetter, s)
	}
	return idx, nil
}

// Question is one record of the question file.
type Question struct {
	// ID is for display only; it is neither unique nor sequential.
	ID          *int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Topic       string  `json:"topic,omitempty" yaml:"topic,omitempty"`
	Text        string  `json:"question" yaml:"question"`
	Options     Options `json:"options" yaml:"options"`
	Answer      string  `json:"answer" yaml:"answer"`
	Explanation string  `json:"explanation" yaml:"explanation"`
}

// DisplayID renders the ID, or "N/A" when the record has none.
func (q Question) DisplayID() string {
	if q.ID == nil {
		return missingID
	}
	return strconv.FormatInt(*q.ID, 10)
}

// TopicOrDefault returns the topic, falling back to DefaultTopic.
func (q Question) TopicOrDefault() string {
	if t := strings.TrimSpace(q.Topic); t != "" {
		return t
	}
	return DefaultTopic
}

// PollText is the poll question: "<id>. <question>".
func (q Question) PollText() string {
	return q.DisplayID() + ". " + q.Text
}

// CorrectIndex returns the zero-based index of the correct option.
func (q Question) CorrectIndex() (int, error) {
	idx, err := ParseLetter(q.Answer)
	if err != nil {
		return 0, err
	}
	if idx >= len(q.Options) {
		return 0, fmt.Errorf("%w: answer %q with %d options", ErrAnswerRange, q.Answer, len(q.Options))
	}
	return idx, nil
}

// Validate reports whether the record can be sent as a quiz poll.
func (q Question) Validate() error {
	if n := len(q.Options); n < MinOptions || n > MaxOptions {
		return fmt.Errorf("%w: got %d", ErrOptionCount, n)
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestion
	}
	_, err := q.CorrectIndex()
	return err
}
