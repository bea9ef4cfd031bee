package availability

import "github.com/slotwise/slotwise/internal/platform/fhir"

// SlotStatus is a FHIR Slot status value.
type SlotStatus string

const (
	SlotStatusFree            SlotStatus = "free"
	SlotStatusBusy            SlotStatus = "busy"
	SlotStatusBusyUnavailable SlotStatus = "busy-unavailable"
	SlotStatusBusyTentative   SlotStatus = "busy-tentative"
	SlotStatusEnteredInError  SlotStatus = "entered-in-error"
)

// Blocking reports whether the status removes time from availability. Any
// busy-class status blocks; tentative holds count as booked until released.
func (s SlotStatus) Blocking() bool {
	switch s {
	case SlotStatusBusy, SlotStatusBusyUnavailable, SlotStatusBusyTentative:
		return true
	}
	return false
}

// SlotRecord is a persisted reservation-state record as the reconciler sees
// it: status, time range, and optional service-type restriction.
type SlotRecord struct {
	Status       SlotStatus
	Interval     Interval
	ServiceTypes []fhir.Coding
}

// ReconcileInput bundles the arguments to ApplyExistingSlots.
type ReconcileInput struct {
	// Availability is the resolver output, assumed chronological.
	Availability []Interval
	// Slots are the persisted reservation records for the schedule.
	Slots []SlotRecord
	// Range bounds the computation; free slots never add time outside it.
	Range Interval
	// ServiceTypes optionally restricts which free slots are admitted.
	ServiceTypes []fhir.Coding
}

// ApplyExistingSlots merges resolved availability with persisted slots.
// entered-in-error records are ignored. Matching free slots are clamped to
// the range and unioned with the availability; every busy-class interval is
// then subtracted, so a busy claim always wins over a free one covering the
// same window.
func ApplyExistingSlots(in ReconcileInput) []Interval {
	combined := make([]Interval, 0, len(in.Availability))
	combined = append(combined, in.Availability...)

	var blocks []Interval
	for _, slot := range in.Slots {
		switch {
		case slot.Status == SlotStatusEnteredInError:
			continue
		case slot.Status == SlotStatusFree:
			if !matchesServiceType(slot.ServiceTypes, in.ServiceTypes) {
				continue
			}
			if clamped, ok := slot.Interval.Clamp(in.Range); ok {
				combined = append(combined, clamped)
			}
		case slot.Status.Blocking():
			blocks = append(blocks, slot.Interval)
		}
	}

	return Subtract(combined, blocks)
}

// matchesServiceType reports whether a free slot restricted to slotTypes may
// serve a request for requested. An unrestricted slot serves anything; an
// unrestricted request accepts anything; otherwise at least one exact
// system+code pair must match.
func matchesServiceType(slotTypes, requested []fhir.Coding) bool {
	if len(slotTypes) == 0 || len(requested) == 0 {
		return true
	}
	for _, have := range slotTypes {
		for _, want := range requested {
			if have.System == want.System && have.Code == want.Code {
				return true
			}
		}
	}
	return false
}
