package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"quizcast/internal/config"
	"quizcast/internal/dispatch"
	kit "quizcast/internal/transport"
	logx "quizcast/pkg/logx"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
	polls []kit.Poll
}

func (r *recorder) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(r.texts)}, nil
}

func (r *recorder) SendPoll(_ context.Context, to kit.ChatTarget, p kit.Poll) (kit.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls = append(r.polls, p)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(r.polls)}, nil
}

func envMap(m map[string]string) config.LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

var testEnv = envMap(map[string]string{
	config.EnvToken:   "123:abc",
	config.EnvChatIDs: "111,-222",
})

// fixture writes a question file with n questions and a config file
// pointing at it; it returns the config path and the progress file path.
func fixture(t *testing.T, n int, extra map[string]any) (string, string) {
	t.Helper()
	dir := t.TempDir()

	qs := make([]map[string]any, n)
	for i := range qs {
		qs[i] = map[string]any{
			"id":          i + 1,
			"topic":       "Capitals",
			"question":    fmt.Sprintf("Capital #%d?", i+1),
			"options":     map[string]string{"a": "Paris", "b": "Rome", "c": "Oslo"},
			"answer":      "b",
			"explanation": "Because.",
		}
	}
	qb, err := json.Marshal(qs)
	if err != nil {
		t.Fatal(err)
	}
	qPath := filepath.Join(dir, "questions.json")
	if err := os.WriteFile(qPath, qb, 0o644); err != nil {
		t.Fatal(err)
	}

	progressPath := filepath.Join(dir, "progress.txt")
	cfg := map[string]any{
		"quiz":     map[string]any{"questions_path": qPath},
		"progress": map[string]any{"path": progressPath},
		"logging":  map[string]any{"level": "error", "console": false},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	cb, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, cb, 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, progressPath
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestApp(t *testing.T, cfgPath string, lookup config.LookupFunc, rec *recorder) *App {
	t.Helper()
	a, err := New(cfgPath, lookup,
		WithMessengerFactory(func(*config.Config, logx.Logger) (kit.Messenger, error) { return rec, nil }),
		WithDispatchOptions(dispatch.WithSleep(noSleep)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func readProgress(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read progress: %v", err)
	}
	return string(b)
}

func TestRunOnceAcrossRuns(t *testing.T) {
	t.Parallel()
	cfgPath, progressPath := fixture(t, 12, nil)

	rec := &recorder{}
	a := newTestApp(t, cfgPath, testEnv, rec)
	ctx := context.Background()

	rep, err := a.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run 1: %v", err)
	}
	if rep.To != 10 || readProgress(t, progressPath) != "10\n" {
		t.Fatalf("run 1: report to=%d, file=%q", rep.To, readProgress(t, progressPath))
	}
	// 2 recipients x 10 questions
	if len(rec.polls) != 20 {
		t.Fatalf("run 1: polls = %d, want 20", len(rec.polls))
	}
	if rec.polls[0].Question != "1. Capital #1?" || rec.polls[0].CorrectOption != 1 {
		t.Fatalf("run 1: first poll = %+v", rec.polls[0])
	}

	if _, err := a.RunOnce(ctx); err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if got := readProgress(t, progressPath); got != "12\n" {
		t.Fatalf("run 2: progress = %q, want 12", got)
	}

	rec.texts, rec.polls = nil, nil
	rep, err = a.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run 3: %v", err)
	}
	if !rep.Exhausted || len(rec.polls) != 0 || len(rec.texts) != 2 || rec.texts[0] != config.DefaultCompletion {
		t.Fatalf("run 3: exhausted=%v polls=%d texts=%q", rep.Exhausted, len(rec.polls), rec.texts)
	}
	if got := readProgress(t, progressPath); got != "12\n" {
		t.Fatalf("run 3: progress = %q, want unchanged 12", got)
	}
}

func TestRunOnceMissingQuestionFileHasNoSideEffects(t *testing.T) {
	t.Parallel()
	cfgPath, progressPath := fixture(t, 3, nil)
	if err := os.Remove(filepath.Join(filepath.Dir(cfgPath), "questions.json")); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	a := newTestApp(t, cfgPath, testEnv, rec)
	if _, err := a.RunOnce(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("RunOnce err = %v, want not-exist", err)
	}
	if len(rec.texts)+len(rec.polls) != 0 {
		t.Fatal("nothing should be sent")
	}
	if _, err := os.Stat(progressPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("progress file should not exist, stat err = %v", err)
	}
}

func TestRunOnceRequiresTelegramSettings(t *testing.T) {
	t.Parallel()
	cfgPath, _ := fixture(t, 3, nil)

	rec := &recorder{}
	a := newTestApp(t, cfgPath, envMap(nil), rec)
	_, err := a.RunOnce(context.Background())
	if !errors.Is(err, config.ErrMissingToken) || !errors.Is(err, config.ErrNoRecipients) {
		t.Fatalf("RunOnce err = %v, want missing token and recipients", err)
	}
	if len(rec.texts)+len(rec.polls) != 0 {
		t.Fatal("nothing should be sent")
	}
}

func TestRunOnceMessengerFailureIsFatal(t *testing.T) {
	t.Parallel()
	cfgPath, progressPath := fixture(t, 3, nil)
	a, err := New(cfgPath, testEnv,
		WithMessengerFactory(func(*config.Config, logx.Logger) (kit.Messenger, error) {
			return nil, errors.New("getMe: Unauthorized")
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if _, err := a.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error when the client cannot be built")
	}
	if _, err := os.Stat(progressPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("cursor must not be written")
	}
}

func TestRunOnceSQLiteProgress(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "quizcast.db")
	cfgPath, _ := fixture(t, 15, map[string]any{
		"progress": map[string]any{"driver": "sqlite", "path": dbPath, "key": "geo"},
	})

	a := newTestApp(t, cfgPath, testEnv, &recorder{})
	for i := 0; i < 2; i++ {
		if _, err := a.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
	st, err := a.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Cursor != 15 || !st.Exhausted() || !st.HasLastWrite {
		t.Fatalf("status = %+v", st)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	cfgPath, progressPath := fixture(t, 25, nil)
	if err := os.WriteFile(progressPath, []byte("7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// status needs no Telegram settings
	a := newTestApp(t, cfgPath, envMap(nil), &recorder{})
	st, err := a.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Total != 25 || st.Cursor != 7 || st.Remaining != 18 || st.RunsLeft != 2 || st.BatchSize != 10 {
		t.Fatalf("status = %+v", st)
	}
	if st.Exhausted() || len(st.Problems) != 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestServeRequiresSchedule(t *testing.T) {
	t.Parallel()
	cfgPath, _ := fixture(t, 3, nil)
	a := newTestApp(t, cfgPath, testEnv, &recorder{})
	if err := a.Serve(context.Background()); !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("Serve err = %v, want ErrNoSchedule", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()
	cfgPath, _ := fixture(t, 3, map[string]any{
		"schedule": map[string]any{"spec": "@daily", "timezone": "UTC"},
	})
	a := newTestApp(t, cfgPath, testEnv, &recorder{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestMapProgressConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Progress.Driver = "SQLite"
	pc, err := mapProgressConfig(cfg)
	if err != nil {
		t.Fatalf("mapProgressConfig: %v", err)
	}
	if pc.Driver != "sqlite" || pc.Path != "quizcast.db" || pc.BusyTimeout != time.Second || pc.Key != config.DefaultProgressKey {
		t.Fatalf("progress config = %+v", pc)
	}

	cfg.Progress.BusyTimeout = "soon"
	if _, err := mapProgressConfig(cfg); err == nil {
		t.Fatal("expected busy_timeout error")
	}
}

func TestMapDispatchConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	dc, err := mapDispatchConfig(cfg)
	if err != nil {
		t.Fatalf("mapDispatchConfig: %v", err)
	}
	if dc.BatchSize != 10 || dc.ExplanationDelay != 20*time.Second || dc.QuestionDelay != 10*time.Second {
		t.Fatalf("dispatch config = %+v", dc)
	}
	if dc.Greeting != config.DefaultGreeting || dc.Completion != config.DefaultCompletion {
		t.Fatalf("texts = %q / %q", dc.Greeting, dc.Completion)
	}
}

func TestMapLogConfigOverride(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	if got := mapLogConfig(cfg, "").Level; got != "info" {
		t.Fatalf("level = %q", got)
	}
	if got := mapLogConfig(cfg, "debug").Level; got != "debug" {
		t.Fatalf("override level = %q", got)
	}
}
