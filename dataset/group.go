package dataset

import (
	"fmt"

	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/internal/hash"
)

// Group holds one level of a grouping column: its xxHash64 ID, the original
// label, and the indices of member rows in first-appearance order.
type Group struct {
	ID    uint64
	Label string
	Rows  []int
}

// GroupIndex partitions table rows by the levels of one grouping column.
// Groups appear in first-appearance order.
type GroupIndex struct {
	Column string
	Groups []Group

	byID map[uint64]int
}

// NumGroups returns the number of distinct levels.
func (g *GroupIndex) NumGroups() int {
	return len(g.Groups)
}

// Lookup returns the group for a label, if present.
func (g *GroupIndex) Lookup(label string) (Group, bool) {
	i, ok := g.byID[hash.ID(label)]
	if !ok {
		return Group{}, false
	}
	grp := g.Groups[i]
	if grp.Label != label {
		// ID matched a different label: treat as absent rather than
		// attributing rows to the wrong group.
		return Group{}, false
	}

	return grp, true
}

// GroupBy builds a group index over the named column. Both label and float
// columns can serve as grouping variables; float levels are keyed by their
// formatted value.
//
// Two distinct labels hashing to the same 64-bit ID fail with
// errs.ErrHashCollision, so downstream consumers can rely on ID identity.
func (t *Table) GroupBy(name string) (*GroupIndex, error) {
	labels, err := t.Labels(name)
	if err != nil {
		return nil, err
	}

	idx := &GroupIndex{
		Column: name,
		byID:   make(map[uint64]int),
	}

	for row, label := range labels {
		id := hash.ID(label)
		if gi, seen := idx.byID[id]; seen {
			if idx.Groups[gi].Label != label {
				return nil, fmt.Errorf("%w: labels %q and %q in column %q share ID %#x",
					errs.ErrHashCollision, idx.Groups[gi].Label, label, name, id)
			}
			idx.Groups[gi].Rows = append(idx.Groups[gi].Rows, row)
			continue
		}

		idx.byID[id] = len(idx.Groups)
		idx.Groups = append(idx.Groups, Group{ID: id, Label: label, Rows: []int{row}})
	}

	return idx, nil
}
