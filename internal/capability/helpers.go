package capability

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mediaflow/internal/services"
)

// NoActionNeeded is the result a capability returns when it found nothing to do.
const NoActionNeeded = "No action needed."

// RequireDir checks that dir exists and is a readable directory. Failures wrap
// services.ErrNotFound so the orchestrator fails the job rather than the run.
func RequireDir(stage, dir string) error {
	if dir == "" {
		return services.Wrap(services.ErrNotFound, stage, "check directory", "Directory path is empty", nil)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return services.Wrap(services.ErrNotFound, stage, "check directory",
			fmt.Sprintf("Directory %s does not exist or cannot be read", dir), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrNotFound, stage, "check directory",
			fmt.Sprintf("%s is not a directory", dir), nil)
	}
	f, err := os.Open(dir)
	if err != nil {
		return services.Wrap(services.ErrNotFound, stage, "check directory",
			fmt.Sprintf("Directory %s cannot be read", dir), err)
	}
	_ = f.Close()
	return nil
}

// Interrupted converts a context error raised mid-turn into a timeout marker.
// It returns nil when ctx is still live.
func Interrupted(ctx context.Context, stage, operation string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stage, operation, "Turn exceeded its time limit", err)
	}
	return services.Wrap(services.ErrExternalTool, stage, operation, "Turn interrupted", err)
}
