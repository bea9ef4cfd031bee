package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/slotwise/slotwise/internal/platform/fhir"
)

func qtyExt(url string, value float64, code string) fhir.Extension {
	return fhir.Extension{URL: url, ValueQuantity: &fhir.Quantity{Value: value, Unit: code, Code: code}}
}

func availabilityExt(days []string, times []string, durationMin float64) fhir.Extension {
	var children []fhir.Extension
	for _, d := range days {
		children = append(children, fhir.Extension{URL: attrDayOfWeek, ValueCode: d})
	}
	for _, tm := range times {
		children = append(children, fhir.Extension{URL: attrTimeOfDay, ValueTime: tm})
	}
	children = append(children, qtyExt(attrDuration, durationMin, "min"))
	return fhir.Extension{URL: attrAvailability, Extension: children}
}

func paramsGroup(children ...fhir.Extension) fhir.Extension {
	return fhir.Extension{URL: ExtensionSchedulingParameters, Extension: children}
}

func TestParseSchedulingParameters_MinimalGroup(t *testing.T) {
	exts := []fhir.Extension{paramsGroup(
		qtyExt(attrDuration, 30, "min"),
		availabilityExt([]string{"mon", "wed"}, []string{"09:00:00"}, 480),
	)}

	groups, err := ParseSchedulingParameters(exts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	p := groups[0]
	if p.DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %d, want 30", p.DurationMinutes)
	}
	if p.BufferBefore != 0 || p.BufferAfter != 0 {
		t.Errorf("buffers = %d/%d, want 0/0", p.BufferBefore, p.BufferAfter)
	}
	if p.AlignmentInterval != 60 {
		t.Errorf("AlignmentInterval = %d, want default 60", p.AlignmentInterval)
	}
	if p.AlignmentOffset != 0 {
		t.Errorf("AlignmentOffset = %d, want 0", p.AlignmentOffset)
	}
	if p.Timezone != "" {
		t.Errorf("Timezone = %q, want empty", p.Timezone)
	}
	if len(p.Availability) != 1 {
		t.Fatalf("got %d rules, want 1", len(p.Availability))
	}
	rule := p.Availability[0]
	wantDays := []time.Weekday{time.Monday, time.Wednesday}
	if len(rule.DaysOfWeek) != len(wantDays) {
		t.Fatalf("got %d days, want %d", len(rule.DaysOfWeek), len(wantDays))
	}
	for i, d := range wantDays {
		if rule.DaysOfWeek[i] != d {
			t.Errorf("day[%d] = %v, want %v", i, rule.DaysOfWeek[i], d)
		}
	}
	if len(rule.TimesOfDay) != 1 || rule.TimesOfDay[0] != (TimeOfDay{Hour: 9}) {
		t.Errorf("TimesOfDay = %v, want [09:00:00]", rule.TimesOfDay)
	}
	if rule.Duration != 480 {
		t.Errorf("rule Duration = %d, want 480", rule.Duration)
	}
}

func TestParseSchedulingParameters_FullGroup(t *testing.T) {
	exts := []fhir.Extension{paramsGroup(
		qtyExt(attrDuration, 1, "h"),
		availabilityExt([]string{"fri"}, []string{"08:00:00", "13:00:00"}, 240),
		qtyExt(attrBufferBefore, 10, "min"),
		qtyExt(attrBufferAfter, 5, "min"),
		qtyExt(attrAlignmentInterval, 30, "min"),
		qtyExt(attrAlignmentOffset, 15, "min"),
		fhir.Extension{URL: attrServiceType, ValueCoding: &fhir.Coding{System: "http://example.org/services", Code: "consult"}},
		fhir.Extension{URL: attrTimezone, ValueString: "America/New_York"},
	)}

	groups, err := ParseSchedulingParameters(exts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := groups[0]
	if p.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want 60 (1h)", p.DurationMinutes)
	}
	if p.BufferBefore != 10 || p.BufferAfter != 5 {
		t.Errorf("buffers = %d/%d, want 10/5", p.BufferBefore, p.BufferAfter)
	}
	if p.AlignmentInterval != 30 || p.AlignmentOffset != 15 {
		t.Errorf("alignment = %d/%d, want 30/15", p.AlignmentInterval, p.AlignmentOffset)
	}
	if len(p.ServiceTypes) != 1 || p.ServiceTypes[0].Code != "consult" {
		t.Errorf("ServiceTypes = %v, want one coding with code consult", p.ServiceTypes)
	}
	if p.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q, want America/New_York", p.Timezone)
	}
	if len(p.Availability[0].TimesOfDay) != 2 {
		t.Errorf("got %d times of day, want 2", len(p.Availability[0].TimesOfDay))
	}
}

func TestParseSchedulingParameters_MultipleGroups(t *testing.T) {
	exts := []fhir.Extension{
		{URL: "http://example.org/unrelated", ValueString: "ignored"},
		paramsGroup(
			qtyExt(attrDuration, 20, "min"),
			availabilityExt([]string{"tue"}, []string{"10:00:00"}, 120),
		),
		paramsGroup(
			qtyExt(attrDuration, 45, "min"),
			availabilityExt([]string{"sat"}, []string{"09:30:00"}, 180),
		),
	}

	groups, err := ParseSchedulingParameters(exts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].DurationMinutes != 20 || groups[1].DurationMinutes != 45 {
		t.Errorf("durations = %d/%d, want 20/45", groups[0].DurationMinutes, groups[1].DurationMinutes)
	}
}

func TestParseSchedulingParameters_CardinalityErrors(t *testing.T) {
	tests := []struct {
		name     string
		group    fhir.Extension
		wantAttr string
		tooMany  bool
	}{
		{
			name: "missing duration",
			group: paramsGroup(
				availabilityExt([]string{"mon"}, []string{"09:00:00"}, 60),
			),
			wantAttr: "duration",
		},
		{
			name: "duplicate duration",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
				qtyExt(attrDuration, 45, "min"),
				availabilityExt([]string{"mon"}, []string{"09:00:00"}, 60),
			),
			wantAttr: "duration",
			tooMany:  true,
		},
		{
			name: "missing availability",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
			),
			wantAttr: "availability",
		},
		{
			name: "duplicate bufferBefore",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
				availabilityExt([]string{"mon"}, []string{"09:00:00"}, 60),
				qtyExt(attrBufferBefore, 5, "min"),
				qtyExt(attrBufferBefore, 10, "min"),
			),
			wantAttr: "bufferBefore",
			tooMany:  true,
		},
		{
			name: "duplicate timezone",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
				availabilityExt([]string{"mon"}, []string{"09:00:00"}, 60),
				fhir.Extension{URL: attrTimezone, ValueString: "UTC"},
				fhir.Extension{URL: attrTimezone, ValueString: "America/Chicago"},
			),
			wantAttr: "timezone",
			tooMany:  true,
		},
		{
			name: "rule without dayOfWeek",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
				fhir.Extension{URL: attrAvailability, Extension: []fhir.Extension{
					{URL: attrTimeOfDay, ValueTime: "09:00:00"},
					qtyExt(attrDuration, 60, "min"),
				}},
			),
			wantAttr: "availability.dayOfWeek",
		},
		{
			name: "rule without timeOfDay",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
				fhir.Extension{URL: attrAvailability, Extension: []fhir.Extension{
					{URL: attrDayOfWeek, ValueCode: "mon"},
					qtyExt(attrDuration, 60, "min"),
				}},
			),
			wantAttr: "availability.timeOfDay",
		},
		{
			name: "rule without duration",
			group: paramsGroup(
				qtyExt(attrDuration, 30, "min"),
				fhir.Extension{URL: attrAvailability, Extension: []fhir.Extension{
					{URL: attrDayOfWeek, ValueCode: "mon"},
					{URL: attrTimeOfDay, ValueTime: "09:00:00"},
				}},
			),
			wantAttr: "availability.duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedulingParameters([]fhir.Extension{tt.group})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.tooMany {
				var te *TooManyValuesError
				if !errors.As(err, &te) {
					t.Fatalf("expected TooManyValuesError, got %T: %v", err, err)
				}
				if te.Attribute != tt.wantAttr {
					t.Errorf("error names attribute %q, want %q", te.Attribute, tt.wantAttr)
				}
				return
			}
			var me *MissingAttributeError
			if !errors.As(err, &me) {
				t.Fatalf("expected MissingAttributeError, got %T: %v", err, err)
			}
			if me.Attribute != tt.wantAttr {
				t.Errorf("error names attribute %q, want %q", me.Attribute, tt.wantAttr)
			}
		})
	}
}

func TestParseSchedulingParameters_UnsupportedUnit(t *testing.T) {
	exts := []fhir.Extension{paramsGroup(
		qtyExt(attrDuration, 1, "mo"),
		availabilityExt([]string{"mon"}, []string{"09:00:00"}, 60),
	)}
	_, err := ParseSchedulingParameters(exts)
	var ue *UnsupportedUnitError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsupportedUnitError, got %T: %v", err, err)
	}
	if ue.Unit != "mo" {
		t.Errorf("error names unit %q, want %q", ue.Unit, "mo")
	}
}

func TestParseSchedulingParameters_AlignmentZeroMeansHourly(t *testing.T) {
	exts := []fhir.Extension{paramsGroup(
		qtyExt(attrDuration, 30, "min"),
		availabilityExt([]string{"mon"}, []string{"09:00:00"}, 60),
		qtyExt(attrAlignmentInterval, 0, "min"),
	)}
	groups, err := ParseSchedulingParameters(exts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].AlignmentInterval != 60 {
		t.Errorf("AlignmentInterval = %d, want 60", groups[0].AlignmentInterval)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00:00", TimeOfDay{}, false},
		{"23:59:59", TimeOfDay{23, 59, 59}, false},
		{"09:30:15", TimeOfDay{9, 30, 15}, false},
		{"24:00:00", TimeOfDay{}, true},
		{"12:60:00", TimeOfDay{}, true},
		{"12:00:60", TimeOfDay{}, true},
		{"9:00:00", TimeOfDay{}, true},
		{"09:00", TimeOfDay{}, true},
		{"09-00-00", TimeOfDay{}, true},
		{"ab:cd:ef", TimeOfDay{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	want := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
		"sat": time.Saturday,
	}
	for code, day := range want {
		got, err := ParseWeekday(code)
		if err != nil {
			t.Fatalf("ParseWeekday(%q): %v", code, err)
		}
		if got != day {
			t.Errorf("ParseWeekday(%q) = %v, want %v", code, got, day)
		}
	}
	for _, bad := range []string{"monday", "MON", "", "xyz"} {
		if _, err := ParseWeekday(bad); err == nil {
			t.Errorf("ParseWeekday(%q): expected error", bad)
		}
	}
}
