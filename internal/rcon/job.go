package rcon

import (
	"fmt"

	"github.com/google/uuid"
)

// color marks a Command's visitation state during the DFS used by
// TopologicalSort.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully processed
)

// TopologicalSort orders commands so that every dependency precedes its
// dependents. It is a safety net on top of the per-command dependency wait
// in the worker loop: it guarantees a finite worker pool's queue cannot
// deadlock a job, because a dependent command is never enqueued ahead of its
// dependency.
//
// Disconnected components are preserved, and the relative order of
// independent commands matches their order in commands (stable DFS
// visitation order).
//
// Fails with ErrDuplicateID if two commands share a nonzero id, or
// ErrCycleDetected if the dependency graph contains a cycle.
func TopologicalSort(commands []*Command) ([]*Command, error) {
	seenIDs := make(map[int]bool, len(commands))
	for _, c := range commands {
		if c.ID == 0 {
			continue
		}
		if seenIDs[c.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, c.ID)
		}
		seenIDs[c.ID] = true
	}

	colors := make(map[*Command]color, len(commands))
	sorted := make([]*Command, 0, len(commands))

	var visit func(c *Command) error
	visit = func(c *Command) error {
		switch colors[c] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: command id %d", ErrCycleDetected, c.ID)
		}

		colors[c] = gray
		for _, dep := range c.dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		colors[c] = black
		sorted = append(sorted, c)
		return nil
	}

	for _, c := range commands {
		if colors[c] == black {
			continue
		}
		if err := visit(c); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}

// CommandSpec describes one command in a flat job submission, the shape the
// (out-of-scope) HTTP layer would decode a job request body into: an id, the
// command text, and the ids of commands it depends on.
type CommandSpec struct {
	ID           int    `json:"id"`
	Command      string `json:"cmd"`
	DependsOn    []int  `json:"depends_on,omitempty"`
	RequireResult bool  `json:"require_result"`
}

// Job is an unordered set of Commands built from a []CommandSpec, plus a
// random correlation id. The id is printed by the job CLI command and the
// MCP submit_job report; Pool.SubmitJob does not receive it, so worker log
// lines do not carry it.
type Job struct {
	ID       uuid.UUID
	Commands []*Command
}

// BuildJob turns a flat slice of CommandSpecs into Commands with dependency
// edges resolved, generalizing the original Python implementation's
// RCONCommand.create_job_from_specification. It does not sort or validate
// the result for cycles: call TopologicalSort (or Pool.SubmitJob, which does
// so internally) before dispatching it.
func BuildJob(specs []CommandSpec, issuer *Issuer) (*Job, error) {
	byID := make(map[int]*Command, len(specs))

	for _, spec := range specs {
		if _, exists := byID[spec.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, spec.ID)
		}
		opts := []CommandOption{WithID(spec.ID)}
		if issuer != nil {
			opts = append(opts, WithIssuer(issuer))
		}
		if spec.RequireResult {
			opts = append(opts, WithResult())
		}
		byID[spec.ID] = NewCommand(spec.Command, opts...)
	}

	for _, spec := range specs {
		depender := byID[spec.ID]
		for _, dependeeID := range spec.DependsOn {
			dependee, ok := byID[dependeeID]
			if !ok {
				return nil, fmt.Errorf("rcon: command %d depends on unknown id %d", spec.ID, dependeeID)
			}
			depender.AddDependency(dependee)
		}
	}

	commands := make([]*Command, 0, len(byID))
	for _, spec := range specs {
		commands = append(commands, byID[spec.ID])
	}

	return &Job{ID: uuid.New(), Commands: commands}, nil
}
