package progress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	logx "quizcast/pkg/logx"
)

// fileStore keeps the cursor as a decimal integer in a text file.
// Writes go to a temp file in the same directory and are renamed over
// the target, so a crash never leaves a half-written cursor.
type fileStore struct {
	path string
	log  logx.Logger
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("progress.path is required for file driver")
	}
	return &fileStore{path: path, log: log}, nil
}

func (s *fileStore) Read(ctx context.Context) (int, error) {
	_ = ctx
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}
	raw := strings.TrimSpace(string(b))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.log.Warn("cursor file unreadable; starting from 0", logx.String("path", s.path), logx.String("content", truncate(raw, 32)))
		return 0, nil
	}
	return n, nil
}

func (s *fileStore) Write(ctx context.Context, cursor int) error {
	_ = ctx
	if cursor < 0 {
		return ErrNegative
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(strconv.Itoa(cursor) + "\n"); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *fileStore) Updated(ctx context.Context) (time.Time, bool, error) {
	_ = ctx
	st, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return st.ModTime(), true, nil
}

func (s *fileStore) Close() error { return nil }

func truncate(s string, maxN int) string {
	if len(s) <= maxN {
		return s
	}
	return s[:maxN] + "..."
}
