package config

import "errors"

var (
	ErrMissingToken = errors.New("telegram token is required (set TELEGRAM_TOKEN or telegram.token)")
	ErrNoRecipients = errors.New("at least one recipient is required (set TELEGRAM_CHAT_IDS or telegram.recipients)")
)

// Environment variables that override file values.
const (
	EnvToken   = "TELEGRAM_TOKEN"
	EnvChatIDs = "TELEGRAM_CHAT_IDS"
)

// Defaults for a daily geography quiz.
const (
	DefaultQuestionsPath    = "questions.json"
	DefaultProgressPath     = "progress.txt"
	DefaultProgressKey      = "default"
	DefaultBatchSize        = 10
	DefaultExplanationDelay = "20s"
	DefaultQuestionDelay    = "10s"
	DefaultRatePerSec       = 20

	DefaultGreeting   = "Hello! I am a geography quiz bot. I will send you 10 questions every day. I hope you enjoy it!"
	DefaultCompletion = "All questions have been sent. We are done!"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Quiz     QuizConfig     `json:"quiz"`
	Progress ProgressConfig `json:"progress"`
	Logging  LoggingConfig  `json:"logging"`

	// Schedule is only used by `quizcast serve`.
	Schedule ScheduleConfig `json:"schedule,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token,omitempty"` // do not log
	// Recipients are chat IDs; groups and channels are negative.
	Recipients []int64 `json:"recipients,omitempty"`
	// RatePerSec caps outgoing Bot API calls. Telegram allows roughly 30/s globally.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// APIURL overrides the Bot API endpoint (local bot-api server, tests).
	APIURL string `json:"api_url,omitempty"`
	// Timeout is a Go duration string for the HTTP client (default "30s").
	Timeout string `json:"timeout,omitempty"`
}

// QuizConfig controls what one run sends.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Defaults (when fields are omitted/zero):
//   - questions_path: "questions.json"
//   - batch_size: 10
//   - explanation_delay: "20s" (pause between a poll and its explanation)
//   - question_delay: "10s" (pause after each question)
type QuizConfig struct {
	QuestionsPath    string `json:"questions_path,omitempty"`
	BatchSize        int    `json:"batch_size,omitempty"`
	ExplanationDelay string `json:"explanation_delay,omitempty"`
	QuestionDelay    string `json:"question_delay,omitempty"`
	Greeting         string `json:"greeting,omitempty"`
	Completion       string `json:"completion,omitempty"`
}

// ProgressConfig selects where the cursor lives.
//
// Example:
//
//	"progress": { "driver": "sqlite", "path": "./quizcast.db", "key": "geo" }
type ProgressConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" (default) | "sqlite"
	Path        string `json:"path,omitempty"`
	Key         string `json:"key,omitempty"`          // sqlite only
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// ScheduleConfig controls the in-process trigger of `quizcast serve`.
// Spec accepts a cron expression ("0 9 * * *", "@daily") or an interval ("24h", "interval:12h").
type ScheduleConfig struct {
	Spec     string `json:"spec,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{RatePerSec: DefaultRatePerSec},
		Quiz: QuizConfig{
			QuestionsPath:    DefaultQuestionsPath,
			BatchSize:        DefaultBatchSize,
			ExplanationDelay: DefaultExplanationDelay,
			QuestionDelay:    DefaultQuestionDelay,
			Greeting:         DefaultGreeting,
			Completion:       DefaultCompletion,
		},
		Progress: ProgressConfig{
			Driver: "file",
			Path:   DefaultProgressPath,
			Key:    DefaultProgressKey,
		},
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}
