package seqguard

import (
	"errors"
	"reflect"
	"testing"
)

type step struct {
	seq  uint64
	want Kind // 0 means accept
}

func run(t *testing.T, g Guard, steps []step) Guard {
	t.Helper()
	for i, s := range steps {
		next, err := g.Admit(s.seq)
		if s.want == 0 {
			if err != nil {
				t.Fatalf("step %d: Admit(%d) error = %v, want accept", i, s.seq, err)
			}
			g = next
			continue
		}
		var v *Violation
		if !errors.As(err, &v) {
			t.Fatalf("step %d: Admit(%d) error = %v, want %s", i, s.seq, err, s.want)
		}
		if v.Kind != s.want {
			t.Fatalf("step %d: Admit(%d) kind = %s, want %s", i, s.seq, v.Kind, s.want)
		}
		if !reflect.DeepEqual(next, g) {
			t.Fatalf("step %d: rejected Admit(%d) returned a modified guard", i, s.seq)
		}
	}
	return g
}

func TestModeOf(t *testing.T) {
	tests := []struct {
		window int
		want   Mode
	}{
		{0, ModeStrict},
		{1, ModeForward},
		{64, ModeForward},
		{-1, ModeAsync},
		{-64, ModeAsync},
	}
	for _, tt := range tests {
		if got := ModeOf(tt.window); got != tt.want {
			t.Errorf("ModeOf(%d) = %s, want %s", tt.window, got, tt.want)
		}
	}
}

func TestGuard_Strict(t *testing.T) {
	tests := []struct {
		name  string
		steps []step
	}{
		{
			name:  "in order",
			steps: []step{{0, 0}, {1, 0}, {2, 0}},
		},
		{
			name:  "first frame must be zero",
			steps: []step{{1, TooNew}, {0, 0}},
		},
		{
			// 0,2,1 delivery: 2 is early, 1 fills the gap, the resent 2 is
			// accepted, then both repeats are stale.
			name:  "reorder then replay",
			steps: []step{{0, 0}, {2, TooNew}, {1, 0}, {2, 0}, {1, TooOld}, {2, TooOld}},
		},
		{
			name:  "replay of zero",
			steps: []step{{0, 0}, {0, TooOld}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run(t, New(0), tt.steps)
		})
	}
}

func TestGuard_Forward(t *testing.T) {
	tests := []struct {
		name  string
		steps []step
	}{
		{
			name:  "skip within window",
			steps: []step{{0, 0}, {2, 0}, {3, 0}, {1, TooOld}},
		},
		{
			name:  "jump beyond window",
			steps: []step{{0, 0}, {5, TooNew}, {3, 0}, {4, 0}, {5, 0}},
		},
		{
			name:  "initial window",
			steps: []step{{3, TooNew}, {2, 0}, {0, TooOld}, {1, TooOld}},
		},
		{
			name:  "duplicate is stale",
			steps: []step{{0, 0}, {1, 0}, {1, TooOld}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run(t, New(2), tt.steps)
		})
	}
}

func TestGuard_Async(t *testing.T) {
	tests := []struct {
		name   string
		window int
		steps  []step
	}{
		{
			name:   "scramble",
			window: -2,
			steps:  []step{{0, 0}, {0, DuplicateInWindow}, {2, 0}, {2, DuplicateInWindow}, {1, 0}, {2, DuplicateInWindow}, {3, 0}},
		},
		{
			name:   "initial window",
			window: -2,
			steps:  []step{{2, TooNew}, {1, 0}, {0, 0}, {3, 0}},
		},
		{
			name:   "too old after advance",
			window: -2,
			steps:  []step{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {1, TooOld}, {2, DuplicateInWindow}},
		},
		{
			name:   "too new",
			window: -3,
			steps:  []step{{0, 0}, {4, TooNew}, {3, 0}, {6, 0}, {5, 0}, {4, 0}},
		},
		{
			name:   "backfill every slot",
			window: -4,
			steps:  []step{{3, 0}, {2, 0}, {1, 0}, {0, 0}, {7, 0}, {6, 0}, {5, 0}, {4, 0}, {4, DuplicateInWindow}, {2, TooOld}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run(t, New(tt.window), tt.steps)
		})
	}
}

func TestGuard_AsyncWideWindow(t *testing.T) {
	// A window wider than one bitmap word exercises cross-word shifts.
	g := New(-100)
	for seq := uint64(0); seq < 300; seq += 3 {
		next, err := g.Admit(seq)
		if err != nil {
			t.Fatalf("Admit(%d) error = %v", seq, err)
		}
		g = next
	}
	for seq := uint64(199); seq < 297; seq += 3 {
		if !g.Accepted(seq - 1) {
			t.Errorf("Accepted(%d) = false, want true", seq-1)
		}
		if g.Accepted(seq) {
			t.Errorf("Accepted(%d) = true, want false", seq)
		}
	}
	if _, err := g.Admit(297); err == nil {
		t.Error("Admit(297) should be a duplicate")
	}
	next, err := g.Admit(298)
	if err != nil {
		t.Fatalf("Admit(298) error = %v", err)
	}
	if next.InFlight() != g.InFlight()+1 {
		t.Errorf("InFlight() = %d, want %d", next.InFlight(), g.InFlight()+1)
	}
}

func TestGuard_AdmitDoesNotAlias(t *testing.T) {
	g := New(-2)
	for _, seq := range []uint64{0, 2} {
		next, err := g.Admit(seq)
		if err != nil {
			t.Fatalf("Admit(%d) error = %v", seq, err)
		}
		g = next
	}
	before := append([]uint64(nil), g.Seen...)

	if _, err := g.Admit(1); err != nil {
		t.Fatalf("Admit(1) error = %v", err)
	}
	if _, err := g.Admit(4); err != nil {
		t.Fatalf("Admit(4) error = %v", err)
	}
	if !reflect.DeepEqual(before, g.Seen) {
		t.Errorf("provisional Admit mutated the original bitmap: %v -> %v", before, g.Seen)
	}
}

func TestGuard_Floor(t *testing.T) {
	tests := []struct {
		name   string
		window int
		seqs   []uint64
		want   uint64
	}{
		{"strict", 0, []uint64{0, 1}, 2},
		{"forward", 3, []uint64{0, 3}, 4},
		{"async fresh", -2, nil, 0},
		{"async", -2, []uint64{0, 2, 4}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.window)
			for _, s := range tt.seqs {
				var err error
				if g, err = g.Admit(s); err != nil {
					t.Fatalf("Admit(%d) error = %v", s, err)
				}
			}
			if got := g.Floor(); got != tt.want {
				t.Errorf("Floor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestViolation_Error(t *testing.T) {
	_, err := New(0).Admit(3)
	want := "seqguard: too_new: seq 3 outside accepted range [0, 0]"
	if err == nil || err.Error() != want {
		t.Errorf("Error() = %v, want %q", err, want)
	}
}

func TestBitset_Shift(t *testing.T) {
	b := newBitset(130)
	b.set(0)
	b.set(63)
	b.set(64)
	b.shift(65)

	for _, i := range []int{65, 128, 129} {
		if !b.test(i) {
			t.Errorf("bit %d should be set after shift", i)
		}
	}
	if b.count() != 3 {
		t.Errorf("count() = %d, want 3", b.count())
	}

	b.shift(2)
	if b.count() != 1 || !b.test(67) {
		t.Errorf("bits past the end should drop, count() = %d", b.count())
	}
	b.shift(500)
	if b.count() != 0 {
		t.Errorf("count() = %d after full shift, want 0", b.count())
	}
}
