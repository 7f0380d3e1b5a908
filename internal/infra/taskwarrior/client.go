// Package taskwarrior implements the task store port by shelling out
// to the `task` command line tool. Reads go through `task export`,
// writes through `task import`, which upserts by UUID and so gives
// idempotent saves. Hooks are disabled on every invocation so the sync
// itself never triggers user hook scripts.
package taskwarrior

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/google/uuid"
	"github.com/mitaka/clubsync/internal/domain"
)

// Ensure Client implements domain.TaskStore interface.
var _ domain.TaskStore = (*Client)(nil)

// Client drives the TaskWarrior CLI.
type Client struct {
	program string
	logger  domain.Logger
}

// NewClient creates a task store backed by the `task` binary on PATH.
func NewClient(logger domain.Logger) *Client {
	return &Client{program: "task", logger: logger}
}

// List returns all tasks in the store, including completed and deleted
// ones; filtering is the caller's concern.
func (c *Client) List(ctx context.Context) ([]*domain.Task, error) {
	out, err := c.run(ctx, nil, "rc.hooks=0", "rc.json.array=1", "export")
	if err != nil {
		return nil, fmt.Errorf("task export: %w", err)
	}

	var wire []wireTask
	if err := json.Unmarshal(out, &wire); err != nil {
		return nil, fmt.Errorf("task export: decode: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(wire))
	for i := range wire {
		tasks = append(tasks, wire[i].toDomain())
	}
	return tasks, nil
}

// Save creates or updates a task. `task import` matches on UUID, so
// re-saving an existing task overwrites it in place.
func (c *Client) Save(ctx context.Context, task *domain.Task) error {
	encoded, err := json.Marshal(fromDomain(task))
	if err != nil {
		return fmt.Errorf("task import: encode %s: %w", task.UUID, err)
	}

	c.logger.Debug("taskwarrior", "import "+task.UUID)
	if _, err := c.run(ctx, encoded, "rc.hooks=0", "import", "-"); err != nil {
		return fmt.Errorf("task import %s: %w", task.UUID, err)
	}
	return nil
}

// NewUUID returns a fresh handle for a task to be created. Generating
// it client-side lets a new task and its dependents be written in one
// pass.
func (c *Client) NewUUID() string {
	return uuid.NewString()
}

func (c *Client) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.program, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
