// Package hash provides 64-bit identity hashing for group labels.
//
// Group labels (subject or cluster identifiers) are arbitrary strings; the
// dataset group index keys them by xxHash64 so lookups and snapshots work
// with fixed-size IDs. Collisions between distinct labels are detected by
// the index, not here.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given label.
func ID(label string) uint64 {
	return xxhash.Sum64String(label)
}
