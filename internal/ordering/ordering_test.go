package ordering

import (
	"errors"
	"testing"
)

func TestAssignInitialPosition(t *testing.T) {
	if got := AssignInitialPosition(nil); got != 0 {
		t.Fatalf("empty column: expected 0, got %d", got)
	}
	if got := AssignInitialPosition([]int{0, 1, 2}); got != 3 {
		t.Fatalf("dense column: expected 3, got %d", got)
	}
	if got := AssignInitialPosition([]int{2, 0, 5}); got != 6 {
		t.Fatalf("gapped column: expected 6, got %d", got)
	}
}

func TestPlanSameColumnMoveForward(t *testing.T) {
	// [A:0 B:1 C:2], move A to 2 -> B and C shift left.
	siblings := []Entry{{"B", 1}, {"C", 2}}
	plan, err := PlanSameColumnMove(0, 2, siblings)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 2 || plan["B"] != 0 || plan["C"] != 1 {
		t.Fatalf("unexpected plan: %v", plan)
	}
}

func TestPlanSameColumnMoveBackward(t *testing.T) {
	// [A:0 B:1 C:2], move C to 0 -> A and B shift right.
	siblings := []Entry{{"A", 0}, {"B", 1}}
	plan, err := PlanSameColumnMove(2, 0, siblings)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 2 || plan["A"] != 1 || plan["B"] != 2 {
		t.Fatalf("unexpected plan: %v", plan)
	}
}

func TestPlanSameColumnMoveTouchesOnlyInterval(t *testing.T) {
	// [A:0 B:1 C:2 D:3 E:4], move B to 3 -> only C and D move.
	siblings := []Entry{{"A", 0}, {"C", 2}, {"D", 3}, {"E", 4}}
	plan, err := PlanSameColumnMove(1, 3, siblings)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 2 || plan["C"] != 1 || plan["D"] != 2 {
		t.Fatalf("unexpected plan: %v", plan)
	}
	if _, ok := plan["A"]; ok {
		t.Fatalf("sibling outside interval was shifted")
	}
}

func TestPlanSameColumnMoveNoop(t *testing.T) {
	plan, err := PlanSameColumnMove(1, 1, []Entry{{"A", 0}, {"C", 2}})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 0 {
		t.Fatalf("expected empty plan, got %v", plan)
	}
}

func TestPlanSameColumnMoveNegative(t *testing.T) {
	if _, err := PlanSameColumnMove(1, -1, nil); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestPlanCrossColumnMove(t *testing.T) {
	// Insert at 1 among [P:0 Q:1 R:2] -> Q and R shift right.
	siblings := []Entry{{"P", 0}, {"Q", 1}, {"R", 2}}
	plan, err := PlanCrossColumnMove(1, siblings)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 2 || plan["Q"] != 2 || plan["R"] != 3 {
		t.Fatalf("unexpected plan: %v", plan)
	}
}

func TestPlanCrossColumnMoveAppend(t *testing.T) {
	plan, err := PlanCrossColumnMove(3, []Entry{{"P", 0}, {"Q", 1}, {"R", 2}})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 0 {
		t.Fatalf("append should shift nobody, got %v", plan)
	}
}

func TestPlanCrossColumnMoveNegative(t *testing.T) {
	if _, err := PlanCrossColumnMove(-1, nil); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestCompactAfterRemoval(t *testing.T) {
	// [A:0 B:1 C:2] minus B leaves a gap at 1.
	plan := CompactAfterRemoval([]Entry{{"A", 0}, {"C", 2}})
	if len(plan) != 1 || plan["C"] != 1 {
		t.Fatalf("unexpected plan: %v", plan)
	}
}

func TestCompactAfterRemovalDenseIsNoop(t *testing.T) {
	plan := CompactAfterRemoval([]Entry{{"A", 0}, {"B", 1}, {"C", 2}})
	if len(plan) != 0 {
		t.Fatalf("dense column should compact to nothing, got %v", plan)
	}
}

func TestCompactAfterRemovalIdempotent(t *testing.T) {
	siblings := []Entry{{"A", 3}, {"B", 0}, {"C", 7}}
	first := CompactAfterRemoval(siblings)

	applied := make([]Entry, len(siblings))
	copy(applied, siblings)
	for i, sib := range applied {
		if pos, ok := first[sib.ID]; ok {
			applied[i].Position = pos
		}
	}

	second := CompactAfterRemoval(applied)
	if len(second) != 0 {
		t.Fatalf("second compaction should be a no-op, got %v", second)
	}
}

func TestCompactAfterRemovalTieBreaksByID(t *testing.T) {
	// Duplicate positions should never occur, but when they do the
	// renumbering must still be deterministic.
	plan := CompactAfterRemoval([]Entry{{"B", 1}, {"A", 1}, {"C", 4}})
	if plan["A"] != 0 || plan["C"] != 2 {
		t.Fatalf("unexpected plan: %v", plan)
	}
	if _, ok := plan["B"]; ok {
		t.Fatalf("B already sits at its rank, got %v", plan)
	}
}

func TestInvariantUnderOperationSequence(t *testing.T) {
	// Simulate a column through create/move/delete and check density
	// after every step.
	positions := map[string]int{}

	apply := func(plan map[string]int) {
		for id, pos := range plan {
			positions[id] = pos
		}
	}
	snapshot := func(exclude string) []Entry {
		var out []Entry
		for id, pos := range positions {
			if id != exclude {
				out = append(out, Entry{id, pos})
			}
		}
		return out
	}
	assertDense := func(step string) {
		seen := make([]bool, len(positions))
		for id, pos := range positions {
			if pos < 0 || pos >= len(positions) || seen[pos] {
				t.Fatalf("%s: invariant broken at %s=%d (%v)", step, id, pos, positions)
			}
			seen[pos] = true
		}
	}

	for _, id := range []string{"A", "B", "C", "D"} {
		var existing []int
		for _, pos := range positions {
			existing = append(existing, pos)
		}
		positions[id] = AssignInitialPosition(existing)
		assertDense("create " + id)
	}

	plan, err := PlanSameColumnMove(positions["D"], 0, snapshot("D"))
	if err != nil {
		t.Fatalf("move D: %v", err)
	}
	apply(plan)
	positions["D"] = 0
	assertDense("move D to front")

	plan, err = PlanSameColumnMove(positions["A"], 3, snapshot("A"))
	if err != nil {
		t.Fatalf("move A: %v", err)
	}
	apply(plan)
	positions["A"] = 3
	assertDense("move A to back")

	delete(positions, "B")
	apply(CompactAfterRemoval(snapshot("")))
	assertDense("delete B")

	delete(positions, "D")
	apply(CompactAfterRemoval(snapshot("")))
	assertDense("delete D")
}
