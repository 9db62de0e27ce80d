package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate reports every problem at once (errors.Join).
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error

	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, ErrMissingToken)
	}
	if len(c.Telegram.Recipients) == 0 {
		errs = append(errs, ErrNoRecipients)
	}
	for _, id := range c.Telegram.Recipients {
		if id == 0 {
			errs = append(errs, errors.New("telegram.recipients: chat id 0 is invalid"))
			break
		}
	}
	if c.Telegram.RatePerSec < 0 {
		errs = append(errs, errors.New("telegram.rate_per_sec must be >= 0"))
	}
	if _, err := ParseDurationField("telegram.timeout", c.Telegram.Timeout); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(c.Quiz.QuestionsPath) == "" {
		errs = append(errs, errors.New("quiz.questions_path is required"))
	}
	if c.Quiz.BatchSize < 0 {
		errs = append(errs, errors.New("quiz.batch_size must be >= 0"))
	}
	if _, err := ParseDurationField("quiz.explanation_delay", c.Quiz.ExplanationDelay); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("quiz.question_delay", c.Quiz.QuestionDelay); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(strings.TrimSpace(c.Progress.Driver)) {
	case "", "file", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("progress.driver: unknown driver %q", c.Progress.Driver))
	}
	if _, err := ParseDurationField("progress.busy_timeout", c.Progress.BusyTimeout); err != nil {
		errs = append(errs, err)
	}

	if tz := strings.TrimSpace(c.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
		}
	}

	return errors.Join(errs...)
}
