package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	GetByFHIRID(ctx context.Context, fhirID string) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPractitioner(ctx context.Context, practitionerID uuid.UUID, limit, offset int) ([]*Schedule, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Schedule, int, error)
}

type SlotRepository interface {
	Create(ctx context.Context, sl *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetByFHIRID(ctx context.Context, fhirID string) (*Slot, error)
	Update(ctx context.Context, sl *Slot) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Slot, int, error)
	// ListByScheduleInRange returns every slot overlapping [start, end),
	// chronologically. The availability pipeline reconciles against it.
	ListByScheduleInRange(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) ([]*Slot, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Slot, int, error)
}
