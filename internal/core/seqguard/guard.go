// Package seqguard implements the sequence window that decides whether an
// inbound frame may be decoded.
//
// A window policy W is fixed when a session is created:
//
//   - W == 0 (strict): only the exact next sequence number is accepted.
//   - W > 0 (forward-tolerant): up to W numbers may be skipped, but the
//     window never moves backwards.
//   - W < 0 (asynchronous): any number within |W| of the highest accepted
//     value is accepted once, in either direction.
//
// Guard values are immutable from the caller's point of view. Admit returns
// the provisional successor; nothing changes until the caller persists it.
package seqguard

import (
	"fmt"
	"math"
)

// Mode is the acceptance discipline derived from the window policy.
type Mode int

const (
	ModeStrict Mode = iota
	ModeForward
	ModeAsync
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeForward:
		return "forward"
	case ModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

// ModeOf maps a signed window policy to its mode.
func ModeOf(window int) Mode {
	switch {
	case window > 0:
		return ModeForward
	case window < 0:
		return ModeAsync
	default:
		return ModeStrict
	}
}

// Kind classifies a rejected sequence number.
type Kind int

const (
	TooOld Kind = iota + 1
	TooNew
	DuplicateInWindow
)

func (k Kind) String() string {
	switch k {
	case TooOld:
		return "too_old"
	case TooNew:
		return "too_new"
	case DuplicateInWindow:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Violation is returned by Admit when a sequence number is rejected.
// Low and High bound the window that was in force at the time.
type Violation struct {
	Kind Kind
	Seq  uint64
	Low  int64
	High int64
}

func (v *Violation) Error() string {
	return fmt.Sprintf("seqguard: %s: seq %d outside accepted range [%d, %d]", v.Kind, v.Seq, v.Low, v.High)
}

// Guard is the persisted window state of one receive direction.
type Guard struct {
	Window   int      `json:"window"`
	Expected uint64   `json:"expected"`
	High     int64    `json:"high"`
	Seen     []uint64 `json:"seen,omitempty"`
}

// New returns the initial guard for the given window policy.
func New(window int) Guard {
	g := Guard{Window: window, High: -1}
	if ModeOf(window) == ModeAsync {
		g.Seen = newBitset(slots(window)).words
	}
	return g
}

// Mode returns the guard's acceptance discipline.
func (g Guard) Mode() Mode {
	return ModeOf(g.Window)
}

// Size returns |W|.
func (g Guard) Size() int {
	if g.Window < 0 {
		return -g.Window
	}
	return g.Window
}

// Slots returns the number of sequence numbers the guard can hold keys for.
func (g Guard) Slots() int {
	return slots(g.Window)
}

// slots is 2|W|+1, the width of the duplicate bitmap and the most keys a
// receiver ever needs to keep for out-of-order frames.
func slots(window int) int {
	if window < 0 {
		window = -window
	}
	return 2*window + 1
}

// Admit checks seq against the window. On success it returns the guard that
// results from accepting seq; on rejection it returns g unchanged and a
// *Violation. The receiver is never modified.
func (g Guard) Admit(seq uint64) (Guard, error) {
	switch g.Mode() {
	case ModeStrict:
		return g.admitStrict(seq)
	case ModeForward:
		return g.admitForward(seq)
	default:
		return g.admitAsync(seq)
	}
}

func (g Guard) admitStrict(seq uint64) (Guard, error) {
	if seq != g.Expected {
		return g, g.violation(seq, g.Expected, g.Expected)
	}
	next := g
	next.Expected = seq + 1
	next.High = int64(seq)
	return next, nil
}

func (g Guard) admitForward(seq uint64) (Guard, error) {
	upper := g.Expected + uint64(g.Window)
	if upper < g.Expected {
		upper = math.MaxUint64
	}
	if seq < g.Expected || seq > upper {
		return g, g.violation(seq, g.Expected, upper)
	}
	next := g
	next.Expected = seq + 1
	next.High = int64(seq)
	return next, nil
}

func (g Guard) admitAsync(seq uint64) (Guard, error) {
	w := int64(g.Size())
	low, high := g.High-w, g.High+w
	if seq > math.MaxInt64 {
		return g, &Violation{Kind: TooNew, Seq: seq, Low: low, High: high}
	}
	s := int64(seq)
	switch {
	case s < low:
		return g, &Violation{Kind: TooOld, Seq: seq, Low: low, High: high}
	case s > high:
		return g, &Violation{Kind: TooNew, Seq: seq, Low: low, High: high}
	}

	seen := g.bitmap()
	if s <= g.High {
		off := int(g.High - s)
		if seen.test(off) {
			return g, &Violation{Kind: DuplicateInWindow, Seq: seq, Low: low, High: high}
		}
		next := g
		seen = seen.clone()
		seen.set(off)
		next.Seen = seen.words
		return next, nil
	}

	next := g
	seen = seen.clone()
	seen.shift(int(s - g.High))
	seen.set(0)
	next.Seen = seen.words
	next.High = s
	if seq+1 > next.Expected {
		next.Expected = seq + 1
	}
	return next, nil
}

func (g Guard) violation(seq, low, high uint64) *Violation {
	kind := TooNew
	if seq < low {
		kind = TooOld
	}
	return &Violation{Kind: kind, Seq: seq, Low: clampInt64(low), High: clampInt64(high)}
}

// bitmap returns a view over Seen, resizing it when the persisted form is
// missing or was written with a different width.
func (g Guard) bitmap() bitset {
	b := newBitset(g.Slots())
	copy(b.words, g.Seen)
	return b
}

// Accepted reports whether seq has already been accepted by an async guard.
// Strict and forward guards report every value below Expected as accepted.
func (g Guard) Accepted(seq uint64) bool {
	if g.Mode() != ModeAsync {
		return seq < g.Expected
	}
	if seq > math.MaxInt64 || int64(seq) > g.High {
		return false
	}
	return g.bitmap().test(int(g.High - int64(seq)))
}

// Floor returns the lowest sequence number the guard could still accept.
// Anything below it is permanently TooOld, so keys for it may be discarded.
func (g Guard) Floor() uint64 {
	if g.Mode() != ModeAsync {
		return g.Expected
	}
	low := g.High - int64(g.Size())
	if low < 0 {
		return 0
	}
	return uint64(low)
}

// InFlight returns how many values inside the async window were accepted.
func (g Guard) InFlight() int {
	if g.Mode() != ModeAsync {
		return 0
	}
	return g.bitmap().count()
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
