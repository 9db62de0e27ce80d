package systemd

import (
	"testing"
	"time"
)

func TestUnitName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"quizcast":           "quizcast.service",
		"quizcast.timer":     "quizcast.timer",
		" quizcast.service ": "quizcast.service",
		"quiz.cast":          "quiz.cast.service",
	}
	for in, want := range tests {
		if got := unitName(in); got != want {
			t.Fatalf("unitName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUsecTime(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	props := map[string]interface{}{
		"set":   uint64(at.UnixMicro()),
		"zero":  uint64(0),
		"inf":   ^uint64(0),
		"wrong": "x",
	}
	if got := usecTime(props, "set"); !got.Equal(at) {
		t.Fatalf("usecTime = %v, want %v", got, at)
	}
	for _, k := range []string{"zero", "inf", "wrong", "missing"} {
		if got := usecTime(props, k); !got.IsZero() {
			t.Fatalf("usecTime(%s) = %v, want zero", k, got)
		}
	}
}

func TestNotifyWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	sent, err := Ready()
	if err != nil || sent {
		t.Fatalf("Ready() = %v, %v; want false, nil outside systemd", sent, err)
	}
}
