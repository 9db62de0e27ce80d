package dispatch

import (
	"time"

	kit "quizcast/internal/transport"
)

type Status int

const (
	StatusSent Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names the step of a per-question send.
type Stage string

const (
	StageValidate    Stage = "validate"
	StageTopic       Stage = "topic"
	StagePoll        Stage = "poll"
	StageExplanation Stage = "explanation"
)

// SendResult is the outcome of sending one question to one recipient.
type SendResult struct {
	Recipient  int64
	Index      int // position in the bank
	QuestionID string
	Status     Status
	// Stage is where a skip or failure happened; empty when sent.
	Stage Stage
	Err   error
	Poll  kit.MessageRef
}

// Partial reports a question whose poll went out but whose explanation did not.
func (r SendResult) Partial() bool {
	return r.Status == StatusFailed && r.Stage == StageExplanation
}

// Report summarizes one run.
type Report struct {
	// From is the cursor read at start; To is the cursor persisted at the end.
	From, To int
	Total    int
	// Exhausted is set when the cursor was already past the last question.
	Exhausted bool
	Results   []SendResult

	Started  time.Time
	Finished time.Time
}

// Count returns how many results have the given status.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Partials returns the half-delivered questions.
func (r Report) Partials() []SendResult {
	var out []SendResult
	for _, res := range r.Results {
		if res.Partial() {
			out = append(out, res)
		}
	}
	return out
}
