package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"revoice/internal/ports"
)

// FFPlayPlayer plays local audio files with ffplay while a parallel ffmpeg
// decode taps the PCM stream for amplitude levels. The tap is best-effort:
// playback proceeds without it and callers fall back to a synthetic waveform.
type FFPlayPlayer struct {
	playCommand   string
	decodeCommand string
}

func NewFFPlayPlayer(playCommand string, decodeCommand string) *FFPlayPlayer {
	if playCommand == "" {
		playCommand = "ffplay"
	}
	if decodeCommand == "" {
		decodeCommand = "ffmpeg"
	}
	return &FFPlayPlayer{playCommand: playCommand, decodeCommand: decodeCommand}
}

const levelWindow = 2048 // bytes of s16le mono per level sample

var _ ports.Player = (*FFPlayPlayer)(nil)

func (p *FFPlayPlayer) Play(ctx context.Context, path string) (ports.PlaybackSession, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file unavailable: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.playCommand,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}

	session := &PlaybackProcess{
		process: cmd.Process,
		done:    make(chan error, 1),
	}

	session.startLevelTap(ctx, p.decodeCommand, path)

	go func() {
		err := normalizeStopErr(cmd.Wait())
		if err != nil && stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, trimSpaceSafe(stderr.String()))
		}
		session.stopTap()
		session.done <- err
		close(session.done)
	}()

	return session, nil
}

// PlaybackProcess is one ffplay run plus its optional PCM level tap.
type PlaybackProcess struct {
	process *os.Process
	done    chan error

	levels chan float64

	tapMu  sync.Mutex
	tap    *os.Process
	tapOut io.ReadCloser

	stopOnce sync.Once
}

func (s *PlaybackProcess) Levels() <-chan float64 { return s.levels }

func (s *PlaybackProcess) Done() <-chan error { return s.done }

func (s *PlaybackProcess) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)

			go func(proc *os.Process) {
				time.Sleep(1200 * time.Millisecond)
				_ = proc.Kill()
			}(s.process)
		}
		s.stopTap()
	})
	return nil
}

func (s *PlaybackProcess) startLevelTap(ctx context.Context, command string, path string) {
	cmd := exec.CommandContext(ctx, command,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "quiet",
		"-re",
		"-i", path,
		"-ac", "1",
		"-ar", "8000",
		"-f", "s16le",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return
	}
	if err := cmd.Start(); err != nil {
		return
	}

	s.tapMu.Lock()
	s.tap = cmd.Process
	s.tapOut = stdout
	s.tapMu.Unlock()

	s.levels = make(chan float64, 64)

	go func() {
		defer close(s.levels)
		defer func() { _ = cmd.Wait() }()

		buf := make([]byte, levelWindow)
		for {
			n, readErr := io.ReadFull(stdout, buf)
			if n > 0 {
				select {
				case s.levels <- rmsLevel(buf[:n]):
				default:
					// UI sampling lags behind the decode; drop the level.
				}
			}
			if readErr != nil {
				return
			}
		}
	}()
}

func (s *PlaybackProcess) stopTap() {
	s.tapMu.Lock()
	tap := s.tap
	out := s.tapOut
	s.tap = nil
	s.tapOut = nil
	s.tapMu.Unlock()

	if out != nil {
		_ = out.Close()
	}
	if tap != nil {
		_ = tap.Kill()
	}
}

// rmsLevel reduces a window of s16le samples to one normalized amplitude.
func rmsLevel(pcm []byte) float64 {
	sampleCount := len(pcm) / 2
	if sampleCount == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < sampleCount*2; i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		v := float64(sample) / math.MaxInt16
		sum += v * v
	}
	return math.Min(1, math.Sqrt(sum/float64(sampleCount)))
}
