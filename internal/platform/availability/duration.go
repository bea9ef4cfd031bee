package availability

import "fmt"

// DurationUnit is a UCUM calendar-duration unit code. Minutes are the finest
// granularity the scheduler works in; month and year are rejected because
// their length depends on the anchor date.
type DurationUnit string

const (
	UnitMinute DurationUnit = "min"
	UnitHour   DurationUnit = "h"
	UnitDay    DurationUnit = "d"
	UnitWeek   DurationUnit = "wk"
)

// Duration is a (value, unit) pair as it appears on a resource.
type Duration struct {
	Value int
	Unit  DurationUnit
}

// UnsupportedUnitError reports a duration unit outside the supported set.
type UnsupportedUnitError struct {
	Unit string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported duration unit %q", e.Unit)
}

// Minutes converts a duration to a whole minute count.
func (d Duration) Minutes() (int, error) {
	switch d.Unit {
	case UnitMinute:
		return d.Value, nil
	case UnitHour:
		return d.Value * 60, nil
	case UnitDay:
		return d.Value * 24 * 60, nil
	case UnitWeek:
		return d.Value * 7 * 24 * 60, nil
	default:
		return 0, &UnsupportedUnitError{Unit: string(d.Unit)}
	}
}
