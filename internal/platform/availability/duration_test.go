package availability

import (
	"errors"
	"strings"
	"testing"
)

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name string
		in   Duration
		want int
	}{
		{"minutes pass through", Duration{Value: 45, Unit: UnitMinute}, 45},
		{"hours", Duration{Value: 2, Unit: UnitHour}, 120},
		{"days", Duration{Value: 1, Unit: UnitDay}, 1440},
		{"weeks", Duration{Value: 1, Unit: UnitWeek}, 10080},
		{"zero", Duration{Value: 0, Unit: UnitMinute}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Minutes()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d minutes, want %d", got, tt.want)
			}
		})
	}
}

func TestDurationMinutes_UnsupportedUnits(t *testing.T) {
	for _, unit := range []string{"mo", "a", "s", "ms", ""} {
		t.Run("unit "+unit, func(t *testing.T) {
			_, err := Duration{Value: 1, Unit: DurationUnit(unit)}.Minutes()
			if err == nil {
				t.Fatal("expected error for unsupported unit")
			}
			var ue *UnsupportedUnitError
			if !errors.As(err, &ue) {
				t.Fatalf("expected UnsupportedUnitError, got %T", err)
			}
			if ue.Unit != unit {
				t.Errorf("error names unit %q, want %q", ue.Unit, unit)
			}
			if !strings.Contains(err.Error(), unit) && unit != "" {
				t.Errorf("error message %q does not name the unit", err.Error())
			}
		})
	}
}
