package rcon

import (
	"errors"
	"testing"
)

func indexOf(commands []*Command, id int) int {
	for i, c := range commands {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func TestTopologicalSortOrdersDependenciesFirst(t *testing.T) {
	a := NewCommand("a", WithID(1))
	b := NewCommand("b", WithID(2), WithDependencies(a))
	c := NewCommand("c", WithID(3), WithDependencies(a))
	d := NewCommand("d", WithID(4), WithDependencies(b, c))

	sorted, err := TopologicalSort([]*Command{a, b, c, d})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sorted) != 4 {
		t.Fatalf("got %d commands, want 4", len(sorted))
	}

	if indexOf(sorted, 1) > indexOf(sorted, 2) {
		t.Error("a (dependency of b) must come before b")
	}
	if indexOf(sorted, 1) > indexOf(sorted, 3) {
		t.Error("a (dependency of c) must come before c")
	}
	if indexOf(sorted, 2) > indexOf(sorted, 4) {
		t.Error("b (dependency of d) must come before d")
	}
	if indexOf(sorted, 3) > indexOf(sorted, 4) {
		t.Error("c (dependency of d) must come before d")
	}
}

func TestTopologicalSortPreservesDisconnectedComponents(t *testing.T) {
	a := NewCommand("a", WithID(1))
	b := NewCommand("b", WithID(2))

	sorted, err := TopologicalSort([]*Command{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sorted) != 2 {
		t.Fatalf("got %d commands, want 2", len(sorted))
	}
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	a := NewCommand("a", WithID(1))
	b := NewCommand("b", WithID(2), WithDependencies(a))
	a.AddDependency(b) // 1 -> 2 -> 1

	_, err := TopologicalSort([]*Command{a, b})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("err = %v, want ErrCycleDetected", err)
	}
}

func TestTopologicalSortDetectsDuplicateID(t *testing.T) {
	a := NewCommand("a", WithID(1))
	b := NewCommand("b", WithID(1))

	_, err := TopologicalSort([]*Command{a, b})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
}

func TestTopologicalSortEmptyJob(t *testing.T) {
	sorted, err := TopologicalSort(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sorted) != 0 {
		t.Errorf("got %d commands, want 0", len(sorted))
	}
}

func TestBuildJobResolvesDependencyEdges(t *testing.T) {
	specs := []CommandSpec{
		{ID: 1, Command: "a", RequireResult: true},
		{ID: 2, Command: "b", DependsOn: []int{1}, RequireResult: true},
		{ID: 3, Command: "c", DependsOn: []int{1}, RequireResult: true},
		{ID: 4, Command: "d", DependsOn: []int{2, 3}, RequireResult: true},
	}

	job, err := BuildJob(specs, &Issuer{Username: "alice", Role: "admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(job.Commands) != 4 {
		t.Fatalf("got %d commands, want 4", len(job.Commands))
	}

	sorted, err := TopologicalSort(job.Commands)
	if err != nil {
		t.Fatalf("job should be acyclic: %v", err)
	}
	if indexOf(sorted, 1) > indexOf(sorted, 4) {
		t.Error("a must precede d transitively")
	}

	for _, c := range job.Commands {
		if c.Issuer == nil || c.Issuer.Username != "alice" {
			t.Errorf("command %d missing issuer", c.ID)
		}
	}
}

func TestBuildJobRejectsUnknownDependency(t *testing.T) {
	specs := []CommandSpec{
		{ID: 1, Command: "a", DependsOn: []int{99}},
	}
	if _, err := BuildJob(specs, nil); err == nil {
		t.Fatal("expected an error for an unknown dependency id")
	}
}

func TestBuildJobRejectsDuplicateID(t *testing.T) {
	specs := []CommandSpec{
		{ID: 1, Command: "a"},
		{ID: 1, Command: "b"},
	}
	if _, err := BuildJob(specs, nil); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
}
