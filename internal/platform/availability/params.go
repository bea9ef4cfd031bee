package availability

import (
	"fmt"
	"strconv"
	"time"

	"github.com/slotwise/slotwise/internal/platform/fhir"
)

// ExtensionSchedulingParameters is the extension URL marking one group of
// scheduling parameters on a Schedule resource. A Schedule may carry several
// groups, e.g. one per service line.
const ExtensionSchedulingParameters = "http://slotwise.io/fhir/StructureDefinition/scheduling-parameters"

// Attribute names used inside a scheduling-parameters group.
const (
	attrDuration          = "duration"
	attrAvailability      = "availability"
	attrBufferBefore      = "bufferBefore"
	attrBufferAfter       = "bufferAfter"
	attrAlignmentInterval = "alignmentInterval"
	attrAlignmentOffset   = "alignmentOffset"
	attrServiceType       = "serviceType"
	attrTimezone          = "timezone"

	attrDayOfWeek = "dayOfWeek"
	attrTimeOfDay = "timeOfDay"
)

// SchedulingParameters is one validated group of booking configuration.
type SchedulingParameters struct {
	Availability      []AvailabilityRule
	DurationMinutes   int
	BufferBefore      int
	BufferAfter       int
	AlignmentInterval int
	AlignmentOffset   int
	ServiceTypes      []fhir.Coding
	Timezone          string
}

// AvailabilityRule is a weekly recurrence: each listed weekday and
// time-of-day combination opens a window of Duration minutes, which may
// cross midnight into the following day.
type AvailabilityRule struct {
	DaysOfWeek []time.Weekday
	TimesOfDay []TimeOfDay
	Duration   int
}

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ParseTimeOfDay parses a HH:MM:SS time string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 8 || s[2] != ':' || s[5] != ':' {
		return TimeOfDay{}, fmt.Errorf("invalid time format %q: expected HH:MM:SS", s)
	}
	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(s[3:5])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	second, err := strconv.Atoi(s[6:])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid second in %q", s)
	}
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("hour out of range in %q", s)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("minute out of range in %q", s)
	}
	if second < 0 || second > 59 {
		return TimeOfDay{}, fmt.Errorf("second out of range in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}, nil
}

var weekdayCodes = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday parses a FHIR days-of-week code (mon, tue, ...).
func ParseWeekday(code string) (time.Weekday, error) {
	d, ok := weekdayCodes[code]
	if !ok {
		return 0, fmt.Errorf("invalid day-of-week code %q", code)
	}
	return d, nil
}

// MissingAttributeError reports a required attribute absent from a
// scheduling-parameters group.
type MissingAttributeError struct {
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("scheduling parameters: missing required attribute %q", e.Attribute)
}

// TooManyValuesError reports an attribute that appears more often than its
// cardinality allows.
type TooManyValuesError struct {
	Attribute string
}

func (e *TooManyValuesError) Error() string {
	return fmt.Sprintf("scheduling parameters: too many values for attribute %q", e.Attribute)
}

// ParseSchedulingParameters extracts every scheduling-parameters group from a
// resource's extension list. Each group is validated independently; the first
// invalid group fails the whole call so a misconfigured schedule is never
// half-bookable.
func ParseSchedulingParameters(exts []fhir.Extension) ([]*SchedulingParameters, error) {
	var out []*SchedulingParameters
	for _, ext := range exts {
		if ext.URL != ExtensionSchedulingParameters {
			continue
		}
		p, err := parseGroup(ext.Extension)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseGroup(attrs []fhir.Extension) (*SchedulingParameters, error) {
	byName := map[string][]fhir.Extension{}
	for _, a := range attrs {
		byName[a.URL] = append(byName[a.URL], a)
	}

	p := &SchedulingParameters{}

	// duration: exactly one
	durations := byName[attrDuration]
	switch {
	case len(durations) == 0:
		return nil, &MissingAttributeError{Attribute: attrDuration}
	case len(durations) > 1:
		return nil, &TooManyValuesError{Attribute: attrDuration}
	}
	minutes, err := quantityMinutes(durations[0])
	if err != nil {
		return nil, err
	}
	p.DurationMinutes = minutes

	// availability: at least one
	avails := byName[attrAvailability]
	if len(avails) == 0 {
		return nil, &MissingAttributeError{Attribute: attrAvailability}
	}
	for _, a := range avails {
		rule, err := parseAvailabilityRule(a.Extension)
		if err != nil {
			return nil, err
		}
		p.Availability = append(p.Availability, rule)
	}

	// optional single-valued minute attributes
	if p.BufferBefore, err = optionalMinutes(byName, attrBufferBefore); err != nil {
		return nil, err
	}
	if p.BufferAfter, err = optionalMinutes(byName, attrBufferAfter); err != nil {
		return nil, err
	}
	if p.AlignmentOffset, err = optionalMinutes(byName, attrAlignmentOffset); err != nil {
		return nil, err
	}
	if p.AlignmentInterval, err = optionalMinutes(byName, attrAlignmentInterval); err != nil {
		return nil, err
	}
	// an alignment interval of 0 means "on the hour"
	if p.AlignmentInterval == 0 {
		p.AlignmentInterval = 60
	}

	for _, st := range byName[attrServiceType] {
		if st.ValueCoding == nil {
			return nil, fmt.Errorf("scheduling parameters: attribute %q requires a coding value", attrServiceType)
		}
		p.ServiceTypes = append(p.ServiceTypes, *st.ValueCoding)
	}

	tzs := byName[attrTimezone]
	if len(tzs) > 1 {
		return nil, &TooManyValuesError{Attribute: attrTimezone}
	}
	if len(tzs) == 1 {
		p.Timezone = tzs[0].ValueString
	}

	return p, nil
}

func parseAvailabilityRule(attrs []fhir.Extension) (AvailabilityRule, error) {
	var rule AvailabilityRule
	for _, a := range attrs {
		switch a.URL {
		case attrDayOfWeek:
			day, err := ParseWeekday(a.ValueCode)
			if err != nil {
				return AvailabilityRule{}, err
			}
			rule.DaysOfWeek = append(rule.DaysOfWeek, day)
		case attrTimeOfDay:
			tod, err := ParseTimeOfDay(a.ValueTime)
			if err != nil {
				return AvailabilityRule{}, err
			}
			rule.TimesOfDay = append(rule.TimesOfDay, tod)
		case attrDuration:
			minutes, err := quantityMinutes(a)
			if err != nil {
				return AvailabilityRule{}, err
			}
			rule.Duration = minutes
		}
	}
	if len(rule.DaysOfWeek) == 0 {
		return AvailabilityRule{}, &MissingAttributeError{Attribute: attrAvailability + "." + attrDayOfWeek}
	}
	if len(rule.TimesOfDay) == 0 {
		return AvailabilityRule{}, &MissingAttributeError{Attribute: attrAvailability + "." + attrTimeOfDay}
	}
	if rule.Duration == 0 {
		return AvailabilityRule{}, &MissingAttributeError{Attribute: attrAvailability + "." + attrDuration}
	}
	return rule, nil
}

func quantityMinutes(ext fhir.Extension) (int, error) {
	if ext.ValueQuantity == nil {
		return 0, fmt.Errorf("scheduling parameters: attribute %q requires a quantity value", ext.URL)
	}
	d := Duration{Value: int(ext.ValueQuantity.Value), Unit: DurationUnit(ext.ValueQuantity.Code)}
	return d.Minutes()
}

// optionalMinutes returns the minute value of an at-most-once attribute,
// defaulting to 0 when absent.
func optionalMinutes(byName map[string][]fhir.Extension, name string) (int, error) {
	entries := byName[name]
	switch {
	case len(entries) == 0:
		return 0, nil
	case len(entries) > 1:
		return 0, &TooManyValuesError{Attribute: name}
	}
	return quantityMinutes(entries[0])
}
