package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"revoice/internal/domain"
	"revoice/internal/ports"
)

// FFMPEGTranscoder re-encodes audio into the requested container with ffmpeg.
type FFMPEGTranscoder struct {
	command string
}

func NewFFMPEGTranscoder(command string) *FFMPEGTranscoder {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGTranscoder{command: command}
}

var _ ports.Transcoder = (*FFMPEGTranscoder)(nil)

func (t *FFMPEGTranscoder) Transcode(ctx context.Context, src string, dst string, format domain.DownloadFormat) error {
	codecArgs, err := codecArgsFor(format)
	if err != nil {
		return err
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", src,
		"-vn",
	}
	args = append(args, codecArgs...)
	args = append(args, dst)

	cmd := exec.CommandContext(ctx, t.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("transcode to %s failed: %w: %s", format, err, trimSpaceSafe(stderr.String()))
	}
	return nil
}

func codecArgsFor(format domain.DownloadFormat) ([]string, error) {
	switch format {
	case domain.DownloadFormatWAV:
		return []string{"-acodec", "pcm_s16le"}, nil
	case domain.DownloadFormatMP3:
		return []string{"-codec:a", "libmp3lame", "-qscale:a", "2"}, nil
	case domain.DownloadFormatOGG:
		return []string{"-codec:a", "libvorbis", "-qscale:a", "5"}, nil
	case domain.DownloadFormatWebM:
		return []string{"-codec:a", "libopus", "-b:a", "96k"}, nil
	default:
		return nil, fmt.Errorf("unknown download format %q", format)
	}
}
