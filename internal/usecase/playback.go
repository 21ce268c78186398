package usecase

import (
	"sync"

	"revoice/internal/domain"
	"revoice/internal/ports"
)

// playbackRun bundles one playback session with its waveform task so both
// halves of the analysis pipeline are torn down together, on every exit path.
type playbackRun struct {
	track   domain.WaveTrack
	session ports.PlaybackSession
	wave    *waveformTask

	stopOnce sync.Once
}

func newPlaybackRun(track domain.WaveTrack, session ports.PlaybackSession, cfg WaveformConfig, events ports.EventSink) *playbackRun {
	return &playbackRun{
		track:   track,
		session: session,
		wave:    startWaveform(track, session.Levels(), cfg, events),
	}
}

func (r *playbackRun) stop() {
	r.stopOnce.Do(func() {
		_ = r.session.Stop()
		r.wave.Stop()
	})
}
