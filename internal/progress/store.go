package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logx "quizcast/pkg/logx"
)

var (
	ErrUnknownDriver = errors.New("unknown progress driver")
	ErrNegative      = errors.New("cursor must be >= 0")
)

// Store is the cursor persistence API.
type Store interface {
	// Read returns the stored cursor. An absent, empty, non-numeric or
	// negative record reads as 0; only real I/O failures are errors.
	Read(ctx context.Context) (int, error)
	// Write overwrites the stored cursor.
	Write(ctx context.Context, cursor int) error
	// Updated reports when the cursor was last written (ok=false if never).
	Updated(ctx context.Context) (at time.Time, ok bool, err error)
	Close() error
}

// Config configures the cursor store.
//
// Driver values:
//   - "file" (or empty): Path is the cursor file
//   - "sqlite": Path is the database file, Key names the cursor row
type Config struct {
	Driver      string
	Path        string
	Key         string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}
