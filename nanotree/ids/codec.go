package ids

import (
	"fmt"
	"strconv"

	"github.com/arthur-debert/nanotree/types"
)

const (
	// SegmentWidth is the number of characters per ID segment.
	SegmentWidth = 2
	// MaxSiblings is the largest position a segment can encode.
	MaxSiblings = 99
)

// Parsed is the result of Parse. Segments is empty when IsValid is false.
type Parsed struct {
	Segments []int
	IsValid  bool
}

// Depth returns the number of segments, 0 for an invalid ID.
func (p Parsed) Depth() int {
	return len(p.Segments)
}

// Parse splits id into its segments. It never returns a partial result:
// either every segment is a number in 1-99 or the ID is invalid.
func Parse(id string) Parsed {
	if id == "" || len(id)%SegmentWidth != 0 {
		return Parsed{}
	}
	segments := make([]int, 0, len(id)/SegmentWidth)
	for i := 0; i < len(id); i += SegmentWidth {
		part := id[i : i+SegmentWidth]
		if part[0] < '0' || part[0] > '9' || part[1] < '0' || part[1] > '9' {
			return Parsed{}
		}
		v, err := strconv.Atoi(part)
		if err != nil || v < 1 || v > MaxSiblings {
			return Parsed{}
		}
		segments = append(segments, v)
	}
	return Parsed{Segments: segments, IsValid: true}
}

// Valid reports whether id is a well-formed hierarchical ID.
func Valid(id string) bool {
	return Parse(id).IsValid
}

// Depth returns the depth of id, 0 when id is invalid.
func Depth(id string) int {
	return Parse(id).Depth()
}

// ParentID drops the last segment of id. ok is false for roots and for
// invalid IDs.
func ParentID(id string) (parent string, ok bool) {
	if !Valid(id) || len(id) == SegmentWidth {
		return "", false
	}
	return id[:len(id)-SegmentWidth], true
}

// IsAncestorID reports whether ancestor is a strict prefix of id on a
// segment boundary. Both IDs must be valid.
func IsAncestorID(ancestor, id string) bool {
	if !Valid(ancestor) || !Valid(id) || len(ancestor) >= len(id) {
		return false
	}
	return id[:len(ancestor)] == ancestor
}

// Segment formats a 1-based position as a 2-digit segment.
func Segment(position int) (string, error) {
	if position < 1 || position > MaxSiblings {
		return "", fmt.Errorf("position %d: %w", position, types.ErrTooManySiblings)
	}
	return fmt.Sprintf("%02d", position), nil
}

// ChildID returns the ID of the child at index (0-based) under parentID.
func ChildID(parentID string, index int) (string, error) {
	if !Valid(parentID) {
		return "", fmt.Errorf("parent %q: %w", parentID, types.ErrInvalidID)
	}
	seg, err := Segment(index + 1)
	if err != nil {
		return "", err
	}
	return parentID + seg, nil
}

// RootSegment returns the numeric value of a root ID's only segment.
func RootSegment(id string) (int, bool) {
	p := Parse(id)
	if !p.IsValid || p.Depth() != 1 {
		return 0, false
	}
	return p.Segments[0], true
}

// Codec hands out root IDs from a monotonic counter. It is not safe for
// concurrent use; the store serializes access to it.
type Codec struct {
	next int
}

// NewCodec returns a codec whose first root ID is "01".
func NewCodec() *Codec {
	return &Codec{next: 1}
}

// NextRootID returns the next unused root ID and advances the counter.
func (c *Codec) NextRootID() (string, error) {
	id, err := c.PeekRootID()
	if err != nil {
		return "", err
	}
	c.next++
	return id, nil
}

// PeekRootID returns the ID NextRootID would hand out without consuming it.
func (c *Codec) PeekRootID() (string, error) {
	return Segment(c.next)
}

// Observe advances the counter past a root ID the caller assigned itself,
// keeping the counter monotonic. Non-root IDs are ignored.
func (c *Codec) Observe(id string) {
	if seg, ok := RootSegment(id); ok && seg >= c.next {
		c.next = seg + 1
	}
}

// Reseed sets the counter to one past the largest root segment in forest.
// It is called whenever a forest is loaded or replaced wholesale.
func (c *Codec) Reseed(forest []*types.Node) {
	maxSeg := 0
	for _, root := range forest {
		if seg, ok := RootSegment(root.ID); ok && seg > maxSeg {
			maxSeg = seg
		}
	}
	c.next = maxSeg + 1
}
