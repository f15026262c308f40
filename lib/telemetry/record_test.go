// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "testing"

func TestPriorityString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		priority Priority
		want     string
	}{
		{PriorityCritical, "critical"},
		{PriorityHigh, "high"},
		{PriorityLow, "low"},
		{Priority(7), "invalid(7)"},
	}
	for _, c := range cases {
		if got := c.priority.String(); got != c.want {
			t.Errorf("Priority(%d).String() = %q, want %q", c.priority, got, c.want)
		}
	}
}

func TestPriorityValid(t *testing.T) {
	t.Parallel()

	for p := Priority(0); p <= 2; p++ {
		if !p.Valid() {
			t.Errorf("Priority(%d).Valid() = false, want true", p)
		}
	}
	if Priority(3).Valid() {
		t.Error("Priority(3).Valid() = true, want false")
	}
}

func TestRecordCritical(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		record Record
		want   bool
	}{
		{
			name:   "nominal",
			record: Record{Speed: 250, Brake: 0.2, WaterTemp: 95, OilPressure: 4.5},
			want:   false,
		},
		{
			name:   "near lockup braking",
			record: Record{Speed: 120, Brake: 0.97, WaterTemp: 95, OilPressure: 4.5},
			want:   true,
		},
		{
			name:   "brake exactly at threshold",
			record: Record{Speed: 120, Brake: 0.95, WaterTemp: 95, OilPressure: 4.5},
			want:   false,
		},
		{
			name:   "cooling overheated",
			record: Record{Speed: 250, Brake: 0.0, WaterTemp: 131, OilPressure: 4.5},
			want:   true,
		},
		{
			name:   "oil pressure collapse while moving",
			record: Record{Speed: 180, Brake: 0.0, WaterTemp: 95, OilPressure: 1.2},
			want:   true,
		},
		{
			name:   "low oil pressure in the garage",
			record: Record{Speed: 0, Brake: 0.0, WaterTemp: 60, OilPressure: 0.0},
			want:   false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.record.Critical(); got != c.want {
				t.Fatalf("Critical() = %v, want %v", got, c.want)
			}
		})
	}
}
