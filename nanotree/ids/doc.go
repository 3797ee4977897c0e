// Package ids encodes and maintains the position-based identifiers of the
// UI tree.
//
//	Format
//
// An ID is a sequence of 2-digit segments, one per tree level, each in the
// range 01-99. The number of segments is the depth of the node and a root
// has exactly one segment:
//
//   - "01"      first root
//
//   - "0102"    second child of the first root
//
//   - "010203"  third child of "0102"
//
// A child's ID is always its parent's ID followed by its 1-based position
// among its siblings, zero padded to two digits. IDs therefore describe
// where a node sits, not what it is: moving or deleting a node changes the
// IDs of everything after it.
//
//	Root Counter
//
// Root IDs are handed out by a monotonic counter (Codec.NextRootID). The
// counter never goes backwards while a document is being edited; it is
// reseeded to max(existing root segment)+1 whenever a whole forest is
// loaded or replaced (Codec.Reseed).
//
//	Renumbering
//
// Consistency is restored by a full depth-first pass (RenumberForest), not
// by patching IDs incrementally. The pass:
//
//   - keeps sibling order
//
//   - assigns every root from 01 upward and every child from its parent's
//     new ID
//
//   - is idempotent on a forest that is already consistent
//
//   - reports the old->new mapping so ID-based references can follow the
//     nodes they point at
//
//	Limits
//
// Two digits cap every level at 99 siblings. Exceeding the cap is an error
// (types.ErrTooManySiblings); IDs never wrap around.
package ids
