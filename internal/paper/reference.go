package paper

// Anchor names the fixed point a reference offsets from.
type Anchor string

const (
	AnchorStart   Anchor = "start"
	AnchorCurrent Anchor = "current"
	AnchorEnd     Anchor = "end"
)

// Reference is a relative address: an anchor plus a signed offset.
// Start and End have fixed directions (forward and backward), so the
// offset sign there contributes magnitude only; Current takes its
// direction from the sign.
type Reference struct {
	Anchor Anchor `json:"anchor"`
	Offset int    `json:"offset"`
}

// Start addresses the |n|-th question or section match scanning forward
// from index 0.
func Start(n int) Reference { return Reference{Anchor: AnchorStart, Offset: n} }

// Current addresses a match relative to the cursor: forward for n >= 0,
// backward for n < 0. The node under the cursor is always passed over,
// so Current(0) means the next match after the cursor, never the cursor
// itself.
func Current(n int) Reference { return Reference{Anchor: AnchorCurrent, Offset: n} }

// End addresses the |n|-th match scanning backward from the last index.
func End(n int) Reference { return Reference{Anchor: AnchorEnd, Offset: n} }

// Forward reports the scan direction the reference resolves in.
func (r Reference) Forward() bool {
	switch r.Anchor {
	case AnchorStart:
		return true
	case AnchorEnd:
		return false
	default:
		return r.Offset >= 0
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
