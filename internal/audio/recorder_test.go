package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"revoice/internal/ports"
)

func TestFFMPEGRecorderStartAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "record.sh", `#!/usr/bin/env bash
trap 'exit 0' INT TERM
out="${@: -1}"
printf 'RIFFfakeaudio' > "$out"
while :; do sleep 0.1; done
`)
	recorder := NewFFMPEGRecorder(script)

	session, err := recorder.Start(context.Background(), ports.RecordConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.Path() == "" {
		t.Fatalf("expected an output path")
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	data, err := os.ReadFile(session.Path())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "RIFF") {
		t.Fatalf("unexpected output: %q", string(data))
	}
	_ = os.Remove(session.Path())

	// Stop must be idempotent.
	if err := session.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestFFMPEGRecorderStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'device busy' 1>&2\nexit 1\n")
	recorder := NewFFMPEGRecorder(script)

	_, err := recorder.Start(context.Background(), ports.RecordConfig{})
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "device busy") {
		t.Fatalf("stderr must be surfaced, got: %v", err)
	}
}

func TestRecordingSessionAbortRemovesFile(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "record.sh", `#!/usr/bin/env bash
trap 'exit 0' INT TERM
out="${@: -1}"
printf 'RIFFfakeaudio' > "$out"
while :; do sleep 0.1; done
`)
	recorder := NewFFMPEGRecorder(script)

	session, err := recorder.Start(context.Background(), ports.RecordConfig{MaxDuration: time.Minute})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := session.Abort(); err != nil {
		t.Fatalf("abort failed: %v", err)
	}
	if _, err := os.Stat(session.Path()); !os.IsNotExist(err) {
		t.Fatalf("abort must remove the output file")
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	if got := normalizeStopErr(nil); got != nil {
		t.Fatalf("expected nil passthrough, got %v", got)
	}
}

func TestTrimSpaceSafe(t *testing.T) {
	t.Parallel()

	if got := trimSpaceSafe("  hi\n"); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
	if got := trimSpaceSafe(""); got != "" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
