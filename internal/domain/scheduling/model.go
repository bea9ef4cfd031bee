package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/slotwise/internal/platform/availability"
	"github.com/slotwise/slotwise/internal/platform/fhir"
)

// Schedule maps to the schedule table (FHIR Schedule resource). Booking
// configuration lives in Extensions as scheduling-parameters groups; the
// availability engine consumes them verbatim.
type Schedule struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	FHIRID               string           `db:"fhir_id" json:"fhir_id"`
	Active               *bool            `db:"active" json:"active,omitempty"`
	PractitionerID       uuid.UUID        `db:"practitioner_id" json:"practitioner_id"`
	LocationID           *uuid.UUID       `db:"location_id" json:"location_id,omitempty"`
	PlanningHorizonStart *time.Time       `db:"planning_horizon_start" json:"planning_horizon_start,omitempty"`
	PlanningHorizonEnd   *time.Time       `db:"planning_horizon_end" json:"planning_horizon_end,omitempty"`
	Comment              *string          `db:"comment" json:"comment,omitempty"`
	Extensions           []fhir.Extension `db:"extensions" json:"extension,omitempty"`
	VersionID            int              `db:"version_id" json:"version_id"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (s *Schedule) GetVersionID() int { return s.VersionID }

// SetVersionID sets the current version.
func (s *Schedule) SetVersionID(v int) { s.VersionID = v }

func (s *Schedule) ToFHIR() map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Schedule",
		"id":           s.FHIRID,
		"actor": []fhir.Reference{{
			Reference: fhir.FormatReference("Practitioner", s.PractitionerID.String()),
		}},
		"meta": fhir.Meta{LastUpdated: s.UpdatedAt},
	}
	if s.Active != nil {
		result["active"] = *s.Active
	}
	if s.PlanningHorizonStart != nil || s.PlanningHorizonEnd != nil {
		result["planningHorizon"] = fhir.Period{Start: s.PlanningHorizonStart, End: s.PlanningHorizonEnd}
	}
	if s.LocationID != nil {
		result["actor"] = append(result["actor"].([]fhir.Reference), fhir.Reference{
			Reference: fhir.FormatReference("Location", s.LocationID.String()),
		})
	}
	if len(s.Extensions) > 0 {
		result["extension"] = s.Extensions
	}
	if s.Comment != nil {
		result["comment"] = *s.Comment
	}
	return result
}

// Slot maps to the slot table (FHIR Slot resource).
type Slot struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	FHIRID       string        `db:"fhir_id" json:"fhir_id"`
	ScheduleID   uuid.UUID     `db:"schedule_id" json:"schedule_id"`
	Status       string        `db:"status" json:"status"`
	StartTime    time.Time     `db:"start_time" json:"start_time"`
	EndTime      time.Time     `db:"end_time" json:"end_time"`
	Overbooked   *bool         `db:"overbooked" json:"overbooked,omitempty"`
	Comment      *string       `db:"comment" json:"comment,omitempty"`
	ServiceTypes []fhir.Coding `db:"service_types" json:"service_types,omitempty"`
	VersionID    int           `db:"version_id" json:"version_id"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (sl *Slot) GetVersionID() int { return sl.VersionID }

// SetVersionID sets the current version.
func (sl *Slot) SetVersionID(v int) { sl.VersionID = v }

func (sl *Slot) ToFHIR() map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Slot",
		"id":           sl.FHIRID,
		"schedule":     fhir.Reference{Reference: fhir.FormatReference("Schedule", sl.ScheduleID.String())},
		"status":       sl.Status,
		"start":        sl.StartTime.Format(time.RFC3339),
		"end":          sl.EndTime.Format(time.RFC3339),
		"meta":         fhir.Meta{LastUpdated: sl.UpdatedAt},
	}
	if sl.Overbooked != nil {
		result["overbooked"] = *sl.Overbooked
	}
	if len(sl.ServiceTypes) > 0 {
		result["serviceType"] = []fhir.CodeableConcept{{Coding: sl.ServiceTypes}}
	}
	if sl.Comment != nil {
		result["comment"] = *sl.Comment
	}
	return result
}

// Record converts a persisted slot into the reconciler's view of it.
func (sl *Slot) Record() availability.SlotRecord {
	return availability.SlotRecord{
		Status:       availability.SlotStatus(sl.Status),
		Interval:     availability.Interval{Start: sl.StartTime, End: sl.EndTime},
		ServiceTypes: sl.ServiceTypes,
	}
}

// ProposedSlotFHIR renders a candidate appointment window as a transient free
// Slot resource. Proposals are never persisted, so the entry carries no id.
func ProposedSlotFHIR(scheduleFHIRID string, iv availability.Interval, serviceTypes []fhir.Coding) map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Slot",
		"schedule":     fhir.Reference{Reference: fhir.FormatReference("Schedule", scheduleFHIRID)},
		"status":       string(availability.SlotStatusFree),
		"start":        iv.Start.Format(time.RFC3339),
		"end":          iv.End.Format(time.RFC3339),
	}
	if len(serviceTypes) > 0 {
		result["serviceType"] = []fhir.CodeableConcept{{Coding: serviceTypes}}
	}
	return result
}
