//go:build linux

package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// LookupUnit reads the state of a unit over the system D-Bus. A missing
// unit is not an error: the result has LoadState "not-found".
func LookupUnit(ctx context.Context, name string) (UnitStatus, error) {
	unit := unitName(name)
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return UnitStatus{}, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	props, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		if isNoSuchUnitErr(err) {
			return UnitStatus{Name: unit, Active: "unknown", SubState: "not-found", LoadState: "not-found"}, nil
		}
		return UnitStatus{}, fmt.Errorf("failed to get status for %s: %w", unit, err)
	}

	st := UnitStatus{
		Name:        unit,
		Active:      stringProp(props, "ActiveState"),
		SubState:    stringProp(props, "SubState"),
		LoadState:   stringProp(props, "LoadState"),
		Description: stringProp(props, "Description"),
		StateChange: usecTime(props, "StateChangeTimestamp"),
	}
	if !st.Found() {
		st.Active, st.SubState = "unknown", "not-found"
		return st, nil
	}

	if strings.HasSuffix(unit, ".timer") {
		tp, err := conn.GetUnitTypePropertiesContext(ctx, unit, "Timer")
		if err == nil {
			st.LastTrigger = usecTime(tp, "LastTriggerUSec")
			st.NextElapse = usecTime(tp, "NextElapseUSecRealtime")
		}
	}
	return st, nil
}

func isNoSuchUnitErr(err error) bool {
	if err == nil {
		return false
	}
	es := err.Error()
	return strings.Contains(es, "NoSuchUnit") || strings.Contains(es, "not-found")
}
