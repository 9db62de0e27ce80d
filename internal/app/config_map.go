package app

import (
	"path/filepath"
	"strings"
	"time"

	"quizcast/internal/config"
	"quizcast/internal/dispatch"
	"quizcast/internal/progress"
	"quizcast/internal/schedule"
	telegram "quizcast/internal/transport/telegram/adapter"
	logx "quizcast/pkg/logx"
)

func mapProgressConfig(cfg *config.Config) (progress.Config, error) {
	pc := cfg.Progress
	driver := strings.ToLower(strings.TrimSpace(pc.Driver))
	path := strings.TrimSpace(pc.Path)
	if driver == "sqlite" || driver == "sqlite3" {
		if path == "" || path == config.DefaultProgressPath {
			path = filepath.Join(filepath.Dir(path), "quizcast.db")
		}
	}
	busy, err := config.ParseDurationOrDefault("progress.busy_timeout", pc.BusyTimeout, time.Second)
	if err != nil {
		return progress.Config{}, err
	}
	return progress.Config{Driver: driver, Path: path, Key: strings.TrimSpace(pc.Key), BusyTimeout: busy}, nil
}

func mapAdapterConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 30*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:      cfg.Telegram.Token,
		APIURL:     cfg.Telegram.APIURL,
		Timeout:    timeout,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, nil
}

func mapDispatchConfig(cfg *config.Config) (dispatch.Config, error) {
	q := cfg.Quiz
	explain, err := config.ParseDurationOrDefault("quiz.explanation_delay", q.ExplanationDelay, 20*time.Second)
	if err != nil {
		return dispatch.Config{}, err
	}
	next, err := config.ParseDurationOrDefault("quiz.question_delay", q.QuestionDelay, 10*time.Second)
	if err != nil {
		return dispatch.Config{}, err
	}
	return dispatch.Config{
		BatchSize:        q.BatchSize,
		ExplanationDelay: explain,
		QuestionDelay:    next,
		Greeting:         q.Greeting,
		Completion:       q.Completion,
	}, nil
}

// mapLogConfig applies the --log-level override on top of the file value.
func mapLogConfig(cfg *config.Config, levelOverride string) logx.Config {
	level := cfg.Logging.Level
	if s := strings.TrimSpace(levelOverride); s != "" {
		level = s
	}
	return logx.Config{
		Level:   level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapScheduleConfig(cfg *config.Config) schedule.Config {
	return schedule.Config{
		Spec:     strings.TrimSpace(cfg.Schedule.Spec),
		Timezone: strings.TrimSpace(cfg.Schedule.Timezone),
	}
}
