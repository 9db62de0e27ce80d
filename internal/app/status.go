package app

import (
	"context"
	"fmt"
	"time"

	"quizcast/internal/dispatch"
	"quizcast/internal/progress"
	"quizcast/internal/quiz"
	logx "quizcast/pkg/logx"
)

// Status is the progress summary printed by `quizcast status`.
type Status struct {
	QuestionsPath string
	Total         int
	Problems      []quiz.Problem

	Cursor    int
	Remaining int
	BatchSize int
	// RunsLeft counts the runs that still send questions.
	RunsLeft int

	LastWrite    time.Time
	HasLastWrite bool
}

func (s Status) Exhausted() bool { return s.Cursor >= s.Total }

// Status reads the question file and the cursor without sending anything.
func (a *App) Status(ctx context.Context) (Status, error) {
	cfg := a.cfgm.Get()
	st := Status{QuestionsPath: cfg.Quiz.QuestionsPath}

	bank, err := quiz.LoadFile(cfg.Quiz.QuestionsPath)
	if err != nil {
		return st, fmt.Errorf("load questions: %w", err)
	}
	st.Total = bank.Len()
	st.Problems = bank.Problems()

	pc, err := mapProgressConfig(cfg)
	if err != nil {
		return st, err
	}
	store, err := progress.Open(pc, a.log.With(logx.String("comp", "progress")))
	if err != nil {
		return st, fmt.Errorf("open progress store: %w", err)
	}
	defer store.Close()

	if st.Cursor, err = store.Read(ctx); err != nil {
		return st, fmt.Errorf("read cursor: %w", err)
	}
	if st.LastWrite, st.HasLastWrite, err = store.Updated(ctx); err != nil {
		return st, fmt.Errorf("read cursor timestamp: %w", err)
	}

	st.BatchSize = cfg.Quiz.BatchSize
	if st.BatchSize <= 0 {
		st.BatchSize = dispatch.DefaultBatchSize
	}
	st.Remaining = max(st.Total-st.Cursor, 0)
	st.RunsLeft = (st.Remaining + st.BatchSize - 1) / st.BatchSize
	return st, nil
}
