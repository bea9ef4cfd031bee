package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/slotwise/slotwise/internal/platform/availability"
	"github.com/slotwise/slotwise/internal/platform/fhir"
)

type Service struct {
	schedules       ScheduleRepository
	slots           SlotRepository
	defaultTimezone string
}

func NewService(sched ScheduleRepository, slot SlotRepository, defaultTimezone string) *Service {
	return &Service{schedules: sched, slots: slot, defaultTimezone: defaultTimezone}
}

// -- Schedule --

func (s *Service) CreateSchedule(ctx context.Context, sched *Schedule) error {
	if sched.PractitionerID == uuid.Nil {
		return fmt.Errorf("practitioner_id is required")
	}
	if sched.Active == nil {
		active := true
		sched.Active = &active
	}
	// reject malformed booking configuration at write time, not at $find time
	if _, err := availability.ParseSchedulingParameters(sched.Extensions); err != nil {
		return err
	}
	return s.schedules.Create(ctx, sched)
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *Service) GetScheduleByFHIRID(ctx context.Context, fhirID string) (*Schedule, error) {
	return s.schedules.GetByFHIRID(ctx, fhirID)
}

func (s *Service) UpdateSchedule(ctx context.Context, sched *Schedule) error {
	if _, err := availability.ParseSchedulingParameters(sched.Extensions); err != nil {
		return err
	}
	return s.schedules.Update(ctx, sched)
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}

func (s *Service) ListSchedulesByPractitioner(ctx context.Context, practitionerID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	return s.schedules.ListByPractitioner(ctx, practitionerID, limit, offset)
}

func (s *Service) SearchSchedules(ctx context.Context, params map[string]string, limit, offset int) ([]*Schedule, int, error) {
	return s.schedules.Search(ctx, params, limit, offset)
}

// -- Slot --

var validSlotStatuses = map[string]bool{
	string(availability.SlotStatusFree):            true,
	string(availability.SlotStatusBusy):            true,
	string(availability.SlotStatusBusyUnavailable): true,
	string(availability.SlotStatusBusyTentative):   true,
	string(availability.SlotStatusEnteredInError):  true,
}

func (s *Service) CreateSlot(ctx context.Context, sl *Slot) error {
	if sl.ScheduleID == uuid.Nil {
		return fmt.Errorf("schedule_id is required")
	}
	if sl.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if sl.EndTime.IsZero() {
		return fmt.Errorf("end_time is required")
	}
	if !sl.StartTime.Before(sl.EndTime) {
		return fmt.Errorf("start_time must be before end_time")
	}
	if sl.Status == "" {
		sl.Status = string(availability.SlotStatusFree)
	}
	if !validSlotStatuses[sl.Status] {
		return fmt.Errorf("invalid slot status: %s", sl.Status)
	}
	return s.slots.Create(ctx, sl)
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Service) GetSlotByFHIRID(ctx context.Context, fhirID string) (*Slot, error) {
	return s.slots.GetByFHIRID(ctx, fhirID)
}

func (s *Service) UpdateSlot(ctx context.Context, sl *Slot) error {
	if sl.Status != "" && !validSlotStatuses[sl.Status] {
		return fmt.Errorf("invalid slot status: %s", sl.Status)
	}
	return s.slots.Update(ctx, sl)
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.Delete(ctx, id)
}

func (s *Service) ListSlotsBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Slot, int, error) {
	return s.slots.ListBySchedule(ctx, scheduleID, limit, offset)
}

func (s *Service) SearchSlots(ctx context.Context, params map[string]string, limit, offset int) ([]*Slot, int, error) {
	return s.slots.Search(ctx, params, limit, offset)
}

// -- Appointment option search --

// FindRequest describes one availability query against a schedule.
type FindRequest struct {
	ScheduleFHIRID string
	Range          availability.Interval
	// Timezone overrides the schedule's configured default when set.
	Timezone     string
	ServiceTypes []fhir.Coding
	// MaxCount caps the number of proposals; 0 means unlimited.
	MaxCount int
}

// FindAppointmentOptions computes bookable appointment windows for a
// schedule. All I/O happens up front: the schedule and its persisted slots
// are loaded, then the availability engine runs as a pure pipeline per
// scheduling-parameters group — resolve the weekly rules, reconcile with
// existing reservations, and enumerate aligned slot times. Groups restricted
// to service types the caller did not ask for are skipped. MaxCount is a
// global budget across groups.
func (s *Service) FindAppointmentOptions(ctx context.Context, req FindRequest) ([]availability.Interval, error) {
	if req.ScheduleFHIRID == "" {
		return nil, fmt.Errorf("schedule id is required")
	}
	if req.Range.Start.IsZero() || req.Range.End.IsZero() {
		return nil, fmt.Errorf("start and end are required")
	}
	if !req.Range.Start.Before(req.Range.End) {
		return nil, fmt.Errorf("start must be before end")
	}

	sched, err := s.schedules.GetByFHIRID(ctx, req.ScheduleFHIRID)
	if err != nil {
		return nil, err
	}
	if sched.Active != nil && !*sched.Active {
		return nil, fmt.Errorf("schedule %s is not active", req.ScheduleFHIRID)
	}

	groups, err := availability.ParseSchedulingParameters(sched.Extensions)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("schedule %s has no scheduling parameters", req.ScheduleFHIRID)
	}

	persisted, err := s.slots.ListByScheduleInRange(ctx, sched.ID, req.Range.Start, req.Range.End)
	if err != nil {
		return nil, err
	}
	records := make([]availability.SlotRecord, 0, len(persisted))
	for _, sl := range persisted {
		records = append(records, sl.Record())
	}

	var proposals []availability.Interval
	for _, p := range groups {
		if !groupServesRequest(p, req.ServiceTypes) {
			continue
		}
		remaining := 0
		if req.MaxCount > 0 {
			remaining = req.MaxCount - len(proposals)
			if remaining <= 0 {
				break
			}
		}

		tz := req.Timezone
		if tz == "" {
			tz = p.Timezone
		}
		if tz == "" {
			tz = s.defaultTimezone
		}
		if tz == "" {
			return nil, fmt.Errorf("no timezone configured for schedule %s", req.ScheduleFHIRID)
		}

		resolved, err := availability.ResolveAvailability(p.Availability, req.Range, tz)
		if err != nil {
			return nil, err
		}

		open := availability.ApplyExistingSlots(availability.ReconcileInput{
			Availability: resolved,
			Slots:        records,
			Range:        req.Range,
			ServiceTypes: req.ServiceTypes,
		})
		open = availability.Normalize(open)

		proposals = append(proposals, availability.FindSlotTimes(p, open, remaining)...)
	}

	return proposals, nil
}

// groupServesRequest reports whether a parameter group may serve the
// requested service types; the matching rule mirrors the reconciler's.
func groupServesRequest(p *availability.SchedulingParameters, requested []fhir.Coding) bool {
	if len(p.ServiceTypes) == 0 || len(requested) == 0 {
		return true
	}
	for _, have := range p.ServiceTypes {
		for _, want := range requested {
			if have.System == want.System && have.Code == want.Code {
				return true
			}
		}
	}
	return false
}
