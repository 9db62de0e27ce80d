package config

import (
	"slices"
	"strings"

	logx "quizcast/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and safe structured
// fields for logging. Secrets (the token) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		!slices.Equal(oldCfg.Telegram.Recipients, newCfg.Telegram.Recipients) ||
		oldCfg.Telegram.RatePerSec != newCfg.Telegram.RatePerSec ||
		strings.TrimSpace(oldCfg.Telegram.APIURL) != strings.TrimSpace(newCfg.Telegram.APIURL) ||
		strings.TrimSpace(oldCfg.Telegram.Timeout) != strings.TrimSpace(newCfg.Telegram.Timeout) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
			logx.Int("telegram.recipients", len(newCfg.Telegram.Recipients)),
			logx.Int("telegram.rate_per_sec", newCfg.Telegram.RatePerSec),
		)
	}

	if oldCfg.Quiz != newCfg.Quiz {
		changed = append(changed, "quiz")
		attrs = append(attrs,
			logx.String("quiz.questions_path", newCfg.Quiz.QuestionsPath),
			logx.Int("quiz.batch_size", newCfg.Quiz.BatchSize),
			logx.String("quiz.explanation_delay", newCfg.Quiz.ExplanationDelay),
			logx.String("quiz.question_delay", newCfg.Quiz.QuestionDelay),
		)
	}

	if oldCfg.Progress != newCfg.Progress {
		changed = append(changed, "progress")
		attrs = append(attrs,
			logx.String("progress.driver", newCfg.Progress.Driver),
			logx.String("progress.path", newCfg.Progress.Path),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs, logx.String("logging.level", newCfg.Logging.Level))
	}

	if oldCfg.Schedule != newCfg.Schedule {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.String("schedule.spec", newCfg.Schedule.Spec),
			logx.String("schedule.timezone", newCfg.Schedule.Timezone),
		)
	}

	return changed, attrs
}
