package adapter

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	kit "quizcast/internal/transport"
	logx "quizcast/pkg/logx"
)

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()
	if got := splitTelegramText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split = %q", got)
	}

	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	got := splitTelegramText(text, 10)
	if len(got) != 2 || got[0] != "aaaaaa" || got[1] != "bbbbbb" {
		t.Fatalf("newline split = %q", got)
	}

	long := strings.Repeat("x", 25)
	got = splitTelegramText(long, 10)
	if len(got) != 3 || len(got[2]) != 5 {
		t.Fatalf("hard split = %q", got)
	}
	if strings.Join(got, "") != long {
		t.Fatal("hard split lost characters")
	}
}

func TestToTelePoll(t *testing.T) {
	t.Parallel()
	p := toTelePoll(kit.Poll{
		Question:      "3. Capital of Italy?",
		Options:       []string{"Milan", "Rome", "Turin"},
		CorrectOption: 1,
	})
	if p.Type != tele.PollQuiz {
		t.Fatalf("Type = %v, want quiz", p.Type)
	}
	if p.Anonymous {
		t.Fatal("poll should not be anonymous")
	}
	if p.CorrectOption != 1 || len(p.Options) != 3 || p.Options[2].Text != "Turin" {
		t.Fatalf("poll = %+v", p)
	}
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
	a, err := New(Config{Token: "123:abc", Offline: true}, logx.Nop())
	if err != nil {
		t.Fatalf("New offline: %v", err)
	}
	if a.limiter == nil {
		t.Fatal("limiter not initialized")
	}
}
