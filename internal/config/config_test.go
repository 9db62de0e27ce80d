package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Parallel()
	m := NewConfigManager("", envMap(map[string]string{
		EnvToken:   " 123:abc ",
		EnvChatIDs: "111, -100222 ,,111",
	}))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if want := []int64{111, -100222}; !slices.Equal(cfg.Telegram.Recipients, want) {
		t.Fatalf("recipients = %v, want %v", cfg.Telegram.Recipients, want)
	}
	if cfg.Quiz.BatchSize != DefaultBatchSize || cfg.Quiz.QuestionsPath != DefaultQuestionsPath {
		t.Fatalf("defaults not applied: %+v", cfg.Quiz)
	}
	if m.Get() != cfg {
		t.Fatal("Load should commit the config")
	}
}

func TestLoadMissingEnvFails(t *testing.T) {
	t.Parallel()
	_, err := NewConfigManager("", envMap(nil)).Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrMissingToken) || !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected both missing token and recipients, got %v", err)
	}
}

func TestLoadInvalidChatIDs(t *testing.T) {
	t.Parallel()
	_, err := NewConfigManager("", envMap(map[string]string{
		EnvToken:   "t",
		EnvChatIDs: "12,abc",
	})).Load()
	if err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "quizcast.yaml", `
telegram:
  token: from-file
  recipients: [1, 2]
quiz:
  questions_path: ./bank.yaml
  batch_size: 5
  question_delay: 0s
progress:
  driver: sqlite
  path: ./state.db
schedule:
  spec: "0 9 * * *"
`)
	m := NewConfigManager(path, envMap(map[string]string{EnvToken: "from-env"}))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("env should override token, got %q", cfg.Telegram.Token)
	}
	if !slices.Equal(cfg.Telegram.Recipients, []int64{1, 2}) {
		t.Fatalf("recipients = %v", cfg.Telegram.Recipients)
	}
	if cfg.Quiz.BatchSize != 5 || cfg.Quiz.QuestionDelay != "0s" {
		t.Fatalf("quiz = %+v", cfg.Quiz)
	}
	// untouched fields keep defaults
	if cfg.Quiz.ExplanationDelay != DefaultExplanationDelay || cfg.Quiz.Greeting != DefaultGreeting {
		t.Fatalf("defaults lost: %+v", cfg.Quiz)
	}
	if cfg.Progress.Driver != "sqlite" || cfg.Progress.Key != DefaultProgressKey {
		t.Fatalf("progress = %+v", cfg.Progress)
	}
	if cfg.Schedule.Spec != "0 9 * * *" {
		t.Fatalf("schedule = %+v", cfg.Schedule)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "quizcast.json", `{"telegram":{"token":"t","recipients":[1]},"bogus":true}`)
	if _, err := NewConfigManager(path, nil).Load(); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "quizcast.json", `{"telegram":{"token":"t","recipients":[1]}}{}`)
	if _, err := NewConfigManager(path, nil).Load(); err == nil {
		t.Fatal("expected trailing data error")
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Telegram.Token = "t"
	cfg.Telegram.Recipients = []int64{1}
	cfg.Quiz.ExplanationDelay = "soon"
	cfg.Progress.Driver = "redis"
	cfg.Schedule.Timezone = "Mars/Olympus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Fatalf("expected joined error, got %T", err)
	}
	if n := len(joined.Unwrap()); n != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", n, err)
	}
}

func TestReloadPublishesOnlyOnChange(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "quizcast.json", `{"telegram":{"token":"t","recipients":[1]}}`)
	m := NewConfigManager(path, nil)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	changed, err := m.Reload()
	if err != nil || changed {
		t.Fatalf("Reload unchanged = (%v, %v), want (false, nil)", changed, err)
	}

	if err := os.WriteFile(path, []byte(`{"telegram":{"token":"t","recipients":[1,2]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	changed, err = m.Reload()
	if err != nil || !changed {
		t.Fatalf("Reload changed = (%v, %v), want (true, nil)", changed, err)
	}
	select {
	case cfg := <-sub:
		if len(cfg.Telegram.Recipients) != 2 {
			t.Fatalf("published recipients = %v", cfg.Telegram.Recipients)
		}
	case <-time.After(time.Second):
		t.Fatal("expected published config")
	}

	// invalid edits are rejected and the committed config stays
	if err := os.WriteFile(path, []byte(`{"telegram":{"token":"","recipients":[1]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reload(); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
	if m.Get().Telegram.Token != "t" {
		t.Fatal("rejected config must not be committed")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("x", " 20s ")
	if err != nil || d != 20*time.Second {
		t.Fatalf("got (%v, %v)", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: got (%v, %v)", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("expected negative duration error")
	}
	if d, err := ParseDurationOrDefault("x", "0s", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default: got (%v, %v)", d, err)
	}
}

func TestSummarizeConfigChangeHidesToken(t *testing.T) {
	t.Parallel()
	a := Default()
	a.Telegram.Token = "secret-1"
	b := Default()
	b.Telegram.Token = "secret-2"
	b.Quiz.BatchSize = 3

	changed, _ := SummarizeConfigChange(a, b)
	if !slices.Equal(changed, []string{"telegram", "quiz"}) {
		t.Fatalf("changed = %v", changed)
	}
}
