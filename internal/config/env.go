package config

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides the token and recipients from the environment.
// An empty variable is treated as unset.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup(EnvToken); ok && strings.TrimSpace(v) != "" {
		c.Telegram.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvChatIDs); ok && strings.TrimSpace(v) != "" {
		ids, err := ParseChatIDs(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvChatIDs, err)
		}
		c.Telegram.Recipients = ids
	}
	return nil
}

// ParseChatIDs parses a comma-separated list of chat IDs ("123, -100456").
// Blank entries are ignored; duplicates are kept once, first occurrence wins.
func ParseChatIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", p)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
