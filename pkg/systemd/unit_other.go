//go:build !linux

package systemd

import "context"

func LookupUnit(ctx context.Context, name string) (UnitStatus, error) {
	return UnitStatus{Name: unitName(name)}, ErrUnsupported
}
