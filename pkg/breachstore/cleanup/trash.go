package cleanup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// commandTimeout bounds each trash command.
const commandTimeout = 30 * time.Second

// Remover deletes one entry of the import folder.
type Remover func(ctx context.Context, path string) error

// Delete removes path permanently. Directories are removed recursively;
// symlinks are removed, never followed.
func Delete(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

// Trash moves path to the system trash: Finder on macOS, gio or trash-put
// on Linux. Without a usable trash it deletes permanently.
func Trash(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		if exec.CommandContext(ctx, "osascript", "-e", script).Run() == nil {
			return nil
		}
	case "linux":
		if gio, err := exec.LookPath("gio"); err == nil {
			if exec.CommandContext(ctx, gio, "trash", path).Run() == nil {
				return nil
			}
		}
		if put, err := exec.LookPath("trash-put"); err == nil {
			if exec.CommandContext(ctx, put, path).Run() == nil {
				return nil
			}
		}
	}
	logger.Debug("no system trash, deleting", "path", path)
	return Delete(ctx, path)
}
