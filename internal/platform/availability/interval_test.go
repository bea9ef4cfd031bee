package availability

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", s, err)
	}
	return ts
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: mustTime(t, start), End: mustTime(t, end)}
}

func equalIntervals(a, b []Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			return false
		}
	}
	return true
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "sorts by start",
			in: []Interval{
				iv(t, "2025-06-01T12:00:00Z", "2025-06-01T13:00:00Z"),
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T10:00:00Z"),
			},
			want: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T10:00:00Z"),
				iv(t, "2025-06-01T12:00:00Z", "2025-06-01T13:00:00Z"),
			},
		},
		{
			name: "merges overlapping",
			in: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T11:00:00Z"),
				iv(t, "2025-06-01T10:00:00Z", "2025-06-01T12:00:00Z"),
			},
			want: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T12:00:00Z"),
			},
		},
		{
			name: "merges touching",
			in: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T10:00:00Z"),
				iv(t, "2025-06-01T10:00:00Z", "2025-06-01T11:00:00Z"),
			},
			want: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T11:00:00Z"),
			},
		},
		{
			name: "contained interval is absorbed",
			in: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T17:00:00Z"),
				iv(t, "2025-06-01T10:00:00Z", "2025-06-01T11:00:00Z"),
			},
			want: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T17:00:00Z"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !equalIntervals(got, tt.want) {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := []Interval{
		iv(t, "2025-06-01T12:00:00Z", "2025-06-01T13:00:00Z"),
		iv(t, "2025-06-01T09:00:00Z", "2025-06-01T12:30:00Z"),
		iv(t, "2025-06-02T09:00:00Z", "2025-06-02T10:00:00Z"),
	}
	once := Normalize(in)
	twice := Normalize(once)
	if !equalIntervals(once, twice) {
		t.Errorf("Normalize is not idempotent: %v != %v", once, twice)
	}
}

func TestSubtract(t *testing.T) {
	avail := []Interval{iv(t, "2025-06-01T09:00:00Z", "2025-06-01T17:00:00Z")}

	tests := []struct {
		name   string
		blocks []Interval
		want   []Interval
	}{
		{
			name:   "no blocks leaves availability untouched",
			blocks: nil,
			want:   avail,
		},
		{
			name:   "disjoint block is ignored",
			blocks: []Interval{iv(t, "2025-06-01T18:00:00Z", "2025-06-01T19:00:00Z")},
			want:   avail,
		},
		{
			name:   "interior block splits the window",
			blocks: []Interval{iv(t, "2025-06-01T12:00:00Z", "2025-06-01T13:00:00Z")},
			want: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T12:00:00Z"),
				iv(t, "2025-06-01T13:00:00Z", "2025-06-01T17:00:00Z"),
			},
		},
		{
			name:   "leading-edge block truncates the start",
			blocks: []Interval{iv(t, "2025-06-01T08:00:00Z", "2025-06-01T10:00:00Z")},
			want:   []Interval{iv(t, "2025-06-01T10:00:00Z", "2025-06-01T17:00:00Z")},
		},
		{
			name:   "trailing-edge block truncates the end",
			blocks: []Interval{iv(t, "2025-06-01T16:00:00Z", "2025-06-01T18:00:00Z")},
			want:   []Interval{iv(t, "2025-06-01T09:00:00Z", "2025-06-01T16:00:00Z")},
		},
		{
			name:   "covering block removes the window",
			blocks: []Interval{iv(t, "2025-06-01T08:00:00Z", "2025-06-01T18:00:00Z")},
			want:   nil,
		},
		{
			name: "two blocks carve three pieces",
			blocks: []Interval{
				iv(t, "2025-06-01T10:00:00Z", "2025-06-01T11:00:00Z"),
				iv(t, "2025-06-01T14:00:00Z", "2025-06-01T15:00:00Z"),
			},
			want: []Interval{
				iv(t, "2025-06-01T09:00:00Z", "2025-06-01T10:00:00Z"),
				iv(t, "2025-06-01T11:00:00Z", "2025-06-01T14:00:00Z"),
				iv(t, "2025-06-01T15:00:00Z", "2025-06-01T17:00:00Z"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtract(avail, tt.blocks)
			if !equalIntervals(got, tt.want) {
				t.Errorf("Subtract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubtract_EmptyAvailability(t *testing.T) {
	blocks := []Interval{iv(t, "2025-06-01T09:00:00Z", "2025-06-01T17:00:00Z")}
	if got := Subtract(nil, blocks); got != nil {
		t.Errorf("Subtract(nil, blocks) = %v, want nil", got)
	}
}

func TestSubtract_BlockSpanningMultipleWindows(t *testing.T) {
	avail := []Interval{
		iv(t, "2025-06-01T09:00:00Z", "2025-06-01T11:00:00Z"),
		iv(t, "2025-06-01T13:00:00Z", "2025-06-01T15:00:00Z"),
	}
	blocks := []Interval{iv(t, "2025-06-01T10:00:00Z", "2025-06-01T14:00:00Z")}
	want := []Interval{
		iv(t, "2025-06-01T09:00:00Z", "2025-06-01T10:00:00Z"),
		iv(t, "2025-06-01T14:00:00Z", "2025-06-01T15:00:00Z"),
	}
	if got := Subtract(avail, blocks); !equalIntervals(got, want) {
		t.Errorf("Subtract() = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	bound := iv(t, "2025-06-01T09:00:00Z", "2025-06-01T17:00:00Z")

	tests := []struct {
		name string
		in   Interval
		want Interval
		ok   bool
	}{
		{"inside passes through", iv(t, "2025-06-01T10:00:00Z", "2025-06-01T11:00:00Z"), iv(t, "2025-06-01T10:00:00Z", "2025-06-01T11:00:00Z"), true},
		{"overlapping start is truncated", iv(t, "2025-06-01T08:00:00Z", "2025-06-01T10:00:00Z"), iv(t, "2025-06-01T09:00:00Z", "2025-06-01T10:00:00Z"), true},
		{"overlapping end is truncated", iv(t, "2025-06-01T16:00:00Z", "2025-06-01T18:00:00Z"), iv(t, "2025-06-01T16:00:00Z", "2025-06-01T17:00:00Z"), true},
		{"disjoint is dropped", iv(t, "2025-06-01T18:00:00Z", "2025-06-01T19:00:00Z"), Interval{}, false},
		{"adjacent is dropped", iv(t, "2025-06-01T17:00:00Z", "2025-06-01T18:00:00Z"), Interval{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Clamp(bound)
			if ok != tt.ok {
				t.Fatalf("Clamp() ok = %v, want %v", ok, tt.ok)
			}
			if ok && (!got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End)) {
				t.Errorf("Clamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
