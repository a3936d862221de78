// Package ordering keeps each column's card positions a dense zero-based
// permutation. All functions are pure computations over snapshots of
// sibling rows; callers read the rows inside their own transaction and
// apply the returned plans atomically.
package ordering

import (
	"errors"
	"sort"
)

var ErrInvalidPosition = errors.New("position must not be negative")

// Entry is one sibling row as the engine sees it.
type Entry struct {
	ID       string
	Position int
}

// AssignInitialPosition returns the append slot for a new card:
// 0 for an empty column, otherwise max(existing)+1. The result can
// never collide with an existing position.
func AssignInitialPosition(existing []int) int {
	if len(existing) == 0 {
		return 0
	}
	max := existing[0]
	for _, p := range existing[1:] {
		if p > max {
			max = p
		}
	}
	return max + 1
}

// PlanSameColumnMove computes the sibling shifts needed to move a card
// from oldPos to newPos within one column. siblings must not contain the
// moving card itself; the caller writes newPos for the mover alongside
// the returned plan. Only the half-open interval between the two
// positions is touched: siblings the card passes over shift by one
// toward the vacated slot.
func PlanSameColumnMove(oldPos, newPos int, siblings []Entry) (map[string]int, error) {
	if newPos < 0 {
		return nil, ErrInvalidPosition
	}

	plan := map[string]int{}
	switch {
	case newPos == oldPos:
		// nothing to shift
	case newPos > oldPos:
		for _, sib := range siblings {
			if sib.Position > oldPos && sib.Position <= newPos {
				plan[sib.ID] = sib.Position - 1
			}
		}
	default:
		for _, sib := range siblings {
			if sib.Position >= newPos && sib.Position < oldPos {
				plan[sib.ID] = sib.Position + 1
			}
		}
	}
	return plan, nil
}

// PlanCrossColumnMove opens a slot at newPos in the target column:
// every sibling at or beyond newPos shifts right by one. The vacated
// source column is repaired separately with CompactAfterRemoval.
func PlanCrossColumnMove(newPos int, targetSiblings []Entry) (map[string]int, error) {
	if newPos < 0 {
		return nil, ErrInvalidPosition
	}

	plan := map[string]int{}
	for _, sib := range targetSiblings {
		if sib.Position >= newPos {
			plan[sib.ID] = sib.Position + 1
		}
	}
	return plan, nil
}

// CompactAfterRemoval renumbers the surviving siblings of a column to
// 0..N-1, ordered by current position with id as tie-break. Only entries
// whose position actually changes appear in the plan, so applying it to
// an already dense column is a no-op and applying it twice equals
// applying it once.
func CompactAfterRemoval(siblings []Entry) map[string]int {
	ordered := make([]Entry, len(siblings))
	copy(ordered, siblings)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID < ordered[j].ID
	})

	plan := map[string]int{}
	for rank, sib := range ordered {
		if sib.Position != rank {
			plan[sib.ID] = rank
		}
	}
	return plan
}
