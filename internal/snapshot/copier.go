// Package snapshot obtains read-consistent copies of browser history
// stores and extracts visit rows from them. Browsers keep their store
// open (and often locked) while running, so reads always go through a
// private temporary copy, never the live file.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Copier produces a read-consistent copy of a file that may be held
// open by another process. Implementations must never mutate src.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

// DirectCopier copies bytes through the filesystem. Transient failures
// (the browser releasing and re-taking its lock) are retried briefly
// before giving up.
type DirectCopier struct{}

// Copy implements Copier.
func (DirectCopier) Copy(ctx context.Context, src, dst string) error {
	return retry.Do(
		func() error { return copyFile(src, dst) },
		retry.Attempts(3),
		retry.Delay(150*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ShadowCopier shells out to a host utility that can read files held
// under an exclusive lock. It is the fallback when DirectCopier loses
// to the browser's own lock.
type ShadowCopier struct {
	// Timeout bounds one invocation of the host utility so a wedged
	// copy cannot stall the polling cycle indefinitely.
	Timeout time.Duration
}

// Copy implements Copier.
func (c ShadowCopier) Copy(ctx context.Context, src, dst string) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		script := fmt.Sprintf("Copy-Item -LiteralPath %q -Destination %q -Force", src, dst)
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	} else {
		cmd = exec.CommandContext(ctx, "cp", "-f", src, dst)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("shadow copy %s: %w: %s", src, err, strings.TrimSpace(string(out)))
	}
	return nil
}
