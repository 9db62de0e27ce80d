// Package systemd integrates quizcast with systemd: readiness notification
// for `quizcast serve` and unit state lookup for `quizcast status`.
package systemd

import (
	"errors"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

var ErrUnsupported = errors.New("systemd: unsupported OS (linux only)")

// Ready tells the service manager that startup finished. It reports
// false when NOTIFY_SOCKET is unset (not running under Type=notify).
func Ready() (bool, error) { return daemon.SdNotify(false, daemon.SdNotifyReady) }

// Stopping announces a graceful shutdown.
func Stopping() (bool, error) { return daemon.SdNotify(false, daemon.SdNotifyStopping) }

// Status publishes a one-line status shown by `systemctl status`.
func Status(msg string) (bool, error) {
	msg = strings.ReplaceAll(msg, "\n", " ")
	return daemon.SdNotify(false, "STATUS="+msg)
}

// UnitStatus is the state of a service or timer unit.
type UnitStatus struct {
	Name        string
	Active      string // active, inactive, failed, ...
	SubState    string // running, dead, waiting, ...
	LoadState   string // loaded, not-found, ...
	Description string
	StateChange time.Time

	// Timer units only.
	LastTrigger time.Time
	NextElapse  time.Time
}

func (s UnitStatus) Found() bool { return s.LoadState != "" && s.LoadState != "not-found" }

// unitName appends ".service" when name has no unit suffix.
func unitName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i > 0 {
		switch name[i+1:] {
		case "service", "timer", "socket", "target", "path":
			return name
		}
	}
	return name + ".service"
}

// usecTime converts a systemd microsecond timestamp property.
func usecTime(props map[string]interface{}, key string) time.Time {
	if ts, ok := props[key].(uint64); ok && ts > 0 && ts != ^uint64(0) {
		return time.UnixMicro(int64(ts))
	}
	return time.Time{}
}

func stringProp(props map[string]interface{}, key string) string {
	v, _ := props[key].(string)
	return v
}
