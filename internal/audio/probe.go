package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"revoice/internal/ports"
)

// FFProbeProber reads media durations with ffprobe. The pipeline never trusts
// an assumed duration; acceptance checks run against what the file reports.
type FFProbeProber struct {
	command string
}

func NewFFProbeProber(command string) *FFProbeProber {
	if command == "" {
		command = "ffprobe"
	}
	return &FFProbeProber{command: command}
}

var _ ports.DurationProber = (*FFProbeProber)(nil)

func (p *FFProbeProber) Probe(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, trimSpaceSafe(stderr.String()))
	}

	seconds, err := strconv.ParseFloat(trimSpaceSafe(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("unreadable media duration %q: %w", trimSpaceSafe(stdout.String()), err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("media reported negative duration %f", seconds)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
