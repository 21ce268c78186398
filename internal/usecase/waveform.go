package usecase

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"revoice/internal/domain"
	"revoice/internal/ports"
)

// WaveformConfig tunes the waveform animation.
type WaveformConfig struct {
	Interval time.Duration
	Bars     int
}

func (c WaveformConfig) withDefaults() WaveformConfig {
	if c.Interval < 16*time.Millisecond {
		c.Interval = 60 * time.Millisecond
	}
	if c.Bars < 8 {
		c.Bars = 32
	}
	return c
}

// waveformTask emits bar levels for one track at animation cadence until
// stopped. Levels come from the live PCM tap when available; otherwise a
// pseudo-random pattern keeps the display moving so it never freezes while
// a track plays or a recording runs. Stopping resets the display to the
// static pattern on every exit path.
type waveformTask struct {
	cancel chan struct{}
	done   chan struct{}
	once   sync.Once
}

func startWaveform(track domain.WaveTrack, levels <-chan float64, cfg WaveformConfig, events ports.EventSink) *waveformTask {
	cfg = cfg.withDefaults()
	t := &waveformTask{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.run(track, levels, cfg, events)
	return t
}

// Stop cancels the animation, waits for the final static frame, and returns.
// Safe to call more than once.
func (t *waveformTask) Stop() {
	t.once.Do(func() { close(t.cancel) })
	<-t.done
}

func (t *waveformTask) run(track domain.WaveTrack, levels <-chan float64, cfg WaveformConfig, events ports.EventSink) {
	defer close(t.done)

	bars := staticPattern(cfg.Bars)
	live := levels != nil
	var lastLive float64

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.cancel:
			events.WaveformFrame(domain.WaveformFrame{Track: track, Levels: staticPattern(cfg.Bars), Live: false})
			return
		case <-ticker.C:
			var level float64
			switch {
			case !live:
				level = fallbackLevel()
			default:
				sample, got, closed := latestLevel(levels)
				switch {
				case closed:
					// Live analysis went away mid-track; fall back rather
					// than freezing the bars.
					live = false
					levels = nil
					level = fallbackLevel()
				case got:
					lastLive = sample
					level = sample
				default:
					// The tap delivers levels slower than the animation
					// ticks; hold the last sample.
					level = lastLive
				}
			}

			copy(bars, bars[1:])
			bars[len(bars)-1] = level

			frame := make([]float64, len(bars))
			copy(frame, bars)
			events.WaveformFrame(domain.WaveformFrame{Track: track, Levels: frame, Live: live})
		}
	}
}

// latestLevel drains the channel and keeps only the newest sample, so the
// animation tracks the playhead instead of a backlog.
func latestLevel(levels <-chan float64) (level float64, got bool, closed bool) {
	for {
		select {
		case sample, open := <-levels:
			if !open {
				return level, got, true
			}
			level = sample
			got = true
		default:
			return level, got, false
		}
	}
}

func fallbackLevel() float64 {
	return 0.15 + 0.7*rand.Float64()
}

// staticPattern is the resting bar shape shown when nothing plays.
func staticPattern(bars int) []float64 {
	out := make([]float64, bars)
	for i := range out {
		out[i] = 0.2 + 0.08*math.Sin(float64(i)*0.7)
	}
	return out
}
