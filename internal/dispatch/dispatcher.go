package dispatch

import (
	"context"
	"fmt"
	"time"

	"quizcast/internal/progress"
	"quizcast/internal/quiz"
	kit "quizcast/internal/transport"
	logx "quizcast/pkg/logx"
)

const DefaultBatchSize = 10

// Config controls the content and pacing of a run.
type Config struct {
	BatchSize int
	// ExplanationDelay separates a poll from its explanation so recipients
	// can answer first.
	ExplanationDelay time.Duration
	// QuestionDelay follows every question to stay under Telegram rate limits.
	QuestionDelay time.Duration
	Greeting      string
	Completion    string
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Dispatcher)

// WithSleep replaces the pause implementation (tests).
func WithSleep(fn SleepFunc) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.sleep = fn
		}
	}
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

type Dispatcher struct {
	cfg   Config
	msg   kit.Messenger
	log   logx.Logger
	sleep SleepFunc
	now   func() time.Time
}

func New(cfg Config, msg kit.Messenger, log logx.Logger, opts ...Option) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{cfg: cfg, msg: msg, log: log, sleep: sleepCtx, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run sends the next batch to every recipient and persists the new cursor.
//
// Errors are run-level only: reading or writing the cursor, or ctx being
// cancelled (in which case the cursor is left as it was). Per-question
// failures are in Report.Results.
func (d *Dispatcher) Run(ctx context.Context, recipients []int64, bank *quiz.Bank, cursor progress.Store) (Report, error) {
	rep := Report{Total: bank.Len(), Started: d.now()}

	start, err := cursor.Read(ctx)
	if err != nil {
		rep.Finished = d.now()
		return rep, fmt.Errorf("read cursor: %w", err)
	}
	rep.From, rep.To = start, start

	if start >= bank.Len() {
		rep.Exhausted = true
		for _, r := range recipients {
			d.sendNotice(ctx, r, d.cfg.Completion, "completion")
		}
		d.log.Info("all questions have been sent", logx.Int("cursor", start), logx.Int("total", bank.Len()))
		rep.Finished = d.now()
		return rep, nil
	}

	window := bank.Window(start, d.cfg.BatchSize)
	d.log.Info("run started",
		logx.Int("cursor", start),
		logx.Int("batch", len(window)),
		logx.Int("total", bank.Len()),
		logx.Int("recipients", len(recipients)),
	)

	for _, r := range recipients {
		d.sendNotice(ctx, r, d.cfg.Greeting, "greeting")
	}

	for _, r := range recipients {
		for i, q := range window {
			res := d.SendQuestion(ctx, r, start+i, q)
			rep.Results = append(rep.Results, res)
			if err := d.sleep(ctx, d.cfg.QuestionDelay); err != nil {
				rep.Finished = d.now()
				return rep, fmt.Errorf("run interrupted at question %d for chat %d: %w", start+i, r, err)
			}
		}
	}

	end := start + len(window)
	if err := cursor.Write(ctx, end); err != nil {
		rep.Finished = d.now()
		return rep, fmt.Errorf("write cursor: %w", err)
	}
	rep.To = end
	rep.Finished = d.now()

	d.log.Info("sent questions",
		logx.Int("from_index", start),
		logx.Int("to_index", end-1),
		logx.Int("sent", rep.Count(StatusSent)),
		logx.Int("skipped", rep.Count(StatusSkipped)),
		logx.Int("failed", rep.Count(StatusFailed)),
		logx.Int("partial", len(rep.Partials())),
	)
	return rep, nil
}

// sendNotice sends a plain text to one recipient; failures are only logged.
func (d *Dispatcher) sendNotice(ctx context.Context, chatID int64, text, kind string) {
	if text == "" {
		return
	}
	if _, err := d.msg.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, nil); err != nil {
		d.log.Warn("notice not delivered", logx.String("kind", kind), logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

// SendQuestion sends topic, poll and explanation for one question.
// It never returns an error: the outcome, including the failing stage,
// is in the result.
func (d *Dispatcher) SendQuestion(ctx context.Context, chatID int64, index int, q quiz.Question) SendResult {
	res := SendResult{Recipient: chatID, Index: index, QuestionID: q.DisplayID()}
	log := d.log.With(logx.String("question_id", res.QuestionID), logx.Int("index", index), logx.Int64("chat_id", chatID))

	if err := q.Validate(); err != nil {
		res.Status, res.Stage, res.Err = StatusSkipped, StageValidate, err
		log.Warn("question skipped", logx.Err(err))
		return res
	}
	correct, _ := q.CorrectIndex()
	to := kit.ChatTarget{ChatID: chatID}

	fail := func(stage Stage, err error) SendResult {
		res.Status, res.Stage, res.Err = StatusFailed, stage, err
		log.Warn("question not delivered", logx.String("stage", string(stage)), logx.Err(err))
		return res
	}

	if _, err := d.msg.SendText(ctx, to, topicText(q.TopicOrDefault()), &kit.SendOptions{ParseMode: kit.ParseModeMarkdown}); err != nil {
		return fail(StageTopic, err)
	}

	ref, err := d.msg.SendPoll(ctx, to, kit.Poll{
		Question:      q.PollText(),
		Options:       q.Options.Texts(),
		CorrectOption: correct,
		Anonymous:     false,
	})
	if err != nil {
		return fail(StagePoll, err)
	}
	res.Poll = ref

	if err := d.sleep(ctx, d.cfg.ExplanationDelay); err != nil {
		return fail(StageExplanation, err)
	}

	if _, err := d.msg.SendText(ctx, to, explanationText(q.Explanation), &kit.SendOptions{ParseMode: kit.ParseModeMarkdown}); err != nil {
		return fail(StageExplanation, err)
	}

	res.Status = StatusSent
	log.Info("question sent")
	return res
}
