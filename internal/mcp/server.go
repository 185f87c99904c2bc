// Package mcp implements the Model Context Protocol server exposing the RCON
// worker pool core to MCP clients: creating and tearing down pools, and
// submitting commands and dependency-ordered jobs to them.
package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mjmorales/rcon-worker-pool/internal/rcon"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registry is a singleton instance tracking every pool this server has
// created. It provides thread-safe create/get/list/remove operations.
var registry = rcon.NewRegistry()

// CreatePoolParams represents parameters for the create_pool tool.
type CreatePoolParams struct {
	PoolID      string `json:"pool_id" jsonschema:"Unique identifier for this pool"`
	Name        string `json:"name,omitempty" jsonschema:"Friendly name for this server (optional)"`
	Port        int    `json:"port" jsonschema:"RCON port on localhost"`
	Password    string `json:"password" jsonschema:"RCON server password"`
	WorkerCount int    `json:"worker_count,omitempty" jsonschema:"Number of concurrent connections (default 3)"`
}

// RemovePoolParams represents parameters for the remove_pool tool.
type RemovePoolParams struct {
	PoolID string `json:"pool_id" jsonschema:"Pool ID to shut down and remove"`
}

// SubmitParams represents parameters for the submit tool.
type SubmitParams struct {
	PoolID  string `json:"pool_id" jsonschema:"Pool ID to submit to"`
	Command string `json:"command" jsonschema:"RCON command text"`
}

// CommandSpecParam mirrors rcon.CommandSpec for MCP tool input.
type CommandSpecParam struct {
	ID            int    `json:"id" jsonschema:"Unique id of this command within the job"`
	Command       string `json:"command" jsonschema:"RCON command text"`
	DependsOn     []int  `json:"depends_on,omitempty" jsonschema:"IDs of commands that must complete first"`
	RequireResult bool   `json:"require_result,omitempty" jsonschema:"Whether to wait for and report this command's result"`
}

// SubmitJobParams represents parameters for the submit_job tool.
type SubmitJobParams struct {
	PoolID   string             `json:"pool_id" jsonschema:"Pool ID to submit to"`
	Commands []CommandSpecParam `json:"commands" jsonschema:"Commands with dependency edges between them"`
}

// ListPoolsParams represents parameters for the list_pools tool.
type ListPoolsParams struct{}

// PoolStatusParams represents parameters for the pool_status tool.
type PoolStatusParams struct {
	PoolID string `json:"pool_id" jsonschema:"Pool ID to inspect"`
}

// CreatePool starts a new worker pool against an RCON server and registers
// it under pool_id. Returns an error if pool_id is taken or authentication
// fails.
func CreatePool(ctx context.Context, cc *mcp.ServerSession, params *mcp.CallToolParamsFor[CreatePoolParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	workerCount := args.WorkerCount
	if workerCount == 0 {
		workerCount = 3
	}

	config := rcon.PoolConfig{
		Password:            args.Password,
		Port:                args.Port,
		WorkerCount:         workerCount,
		ReconnectPause:      5 * time.Second,
		GracePeriod:         rcon.Disable(),
		AwaitShutdownPeriod: rcon.NoTimeout(),
	}

	entry, err := registry.CreatePool(ctx, args.PoolID, args.Name, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("Pool %q started with %d workers", entry.ID, workerCount),
		}},
	}, nil
}

// RemovePool gracefully shuts a pool down and unregisters it.
func RemovePool(ctx context.Context, cc *mcp.ServerSession, params *mcp.CallToolParamsFor[RemovePoolParams]) (*mcp.CallToolResultFor[any], error) {
	if err := registry.RemovePool(ctx, params.Arguments.PoolID); err != nil {
		return nil, fmt.Errorf("failed to remove pool: %w", err)
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("Removed pool: %s", params.Arguments.PoolID),
		}},
	}, nil
}

// Submit enqueues a single command on the named pool and blocks until it
// settles, returning the server's response.
func Submit(ctx context.Context, cc *mcp.ServerSession, params *mcp.CallToolParamsFor[SubmitParams]) (*mcp.CallToolResultFor[any], error) {
	entry, err := registry.GetPool(params.Arguments.PoolID)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %w", err)
	}

	cmd := rcon.NewCommand(params.Arguments.Command, rcon.WithResult())
	if err := entry.Pool.Submit(cmd); err != nil {
		return nil, fmt.Errorf("failed to submit command: %w", err)
	}

	response, err := cmd.AwaitResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("command failed: %w", err)
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: response}},
	}, nil
}

// SubmitJob builds a dependency-ordered job from the given command specs,
// submits it to the named pool, and blocks until every command whose
// RequireResult is set has settled, reporting each of their outcomes.
func SubmitJob(ctx context.Context, cc *mcp.ServerSession, params *mcp.CallToolParamsFor[SubmitJobParams]) (*mcp.CallToolResultFor[any], error) {
	entry, err := registry.GetPool(params.Arguments.PoolID)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %w", err)
	}

	specs := make([]rcon.CommandSpec, len(params.Arguments.Commands))
	for i, c := range params.Arguments.Commands {
		specs[i] = rcon.CommandSpec{
			ID:            c.ID,
			Command:       c.Command,
			DependsOn:     c.DependsOn,
			RequireResult: c.RequireResult,
		}
	}

	job, err := rcon.BuildJob(specs, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	if err := entry.Pool.SubmitJob(job.Commands); err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	var report strings.Builder
	fmt.Fprintf(&report, "Job %s:\n", job.ID)
	for _, cmd := range job.Commands {
		if !cmd.HasResult() {
			if err := cmd.Wait(ctx); err != nil {
				return nil, fmt.Errorf("job interrupted: %w", err)
			}
			continue
		}
		response, err := cmd.AwaitResult(ctx)
		if err != nil {
			fmt.Fprintf(&report, "- [%d] %s: ERROR: %v\n", cmd.ID, cmd.Text, err)
			continue
		}
		fmt.Fprintf(&report, "- [%d] %s: %s\n", cmd.ID, cmd.Text, response)
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: report.String()}},
	}, nil
}

// ListPools retrieves information about all active pools.
func ListPools(ctx context.Context, cc *mcp.ServerSession, params *mcp.CallToolParamsFor[ListPoolsParams]) (*mcp.CallToolResultFor[any], error) {
	entries := registry.ListPools()

	if len(entries) == 0 {
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: "No active pools"}},
		}, nil
	}

	var report strings.Builder
	report.WriteString("Active pools:\n")
	for _, entry := range entries {
		name := entry.Name
		if name == "" {
			name = "unnamed"
		}
		status := entry.Pool.Status()
		fmt.Fprintf(&report, "- %s (%s): %d workers, %d queued\n", entry.ID, name, status.WorkerCount, status.QueueDepth)
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: report.String()}},
	}, nil
}

// PoolStatus reports the queue depth and worker count of one pool.
func PoolStatus(ctx context.Context, cc *mcp.ServerSession, params *mcp.CallToolParamsFor[PoolStatusParams]) (*mcp.CallToolResultFor[any], error) {
	entry, err := registry.GetPool(params.Arguments.PoolID)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %w", err)
	}

	status := entry.Pool.Status()
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("pool %s: %d workers, %d commands queued", entry.ID, status.WorkerCount, status.QueueDepth),
		}},
	}, nil
}

// Serve initializes and runs the MCP server.
// It registers all RCON pool tools and starts listening for MCP connections
// via stdio. The function blocks until the server is terminated or
// encounters a fatal error.
func Serve() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rcon-worker-pool",
		Version: "v1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rcon_create_pool",
		Description: "Start a worker pool against an RCON server",
	}, CreatePool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rcon_remove_pool",
		Description: "Shut down and remove a worker pool",
	}, RemovePool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rcon_submit",
		Description: "Submit a single command to a worker pool and await its result",
	}, Submit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rcon_submit_job",
		Description: "Submit a dependency-ordered batch of commands to a worker pool",
	}, SubmitJob)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rcon_list_pools",
		Description: "List all active worker pools",
	}, ListPools)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rcon_pool_status",
		Description: "Report queue depth and worker count for a pool",
	}, PoolStatus)

	fmt.Println("RCON worker pool MCP server is ready!")
	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatal(err)
	}

	registry.ShutdownAll(context.Background())
}
