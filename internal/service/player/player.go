package player

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player воспроизводит аудио потоком в зависимости от формата.
type Player interface {
	Play(ctx context.Context, format string, r io.ReadCloser) error
}

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	"mp3": mp3.Decode,
	"wav": func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(r) },
}

// Supported сообщает, умеет ли плеер играть формат.
func Supported(format string) bool {
	_, ok := decoders[strings.ToLower(format)]
	return ok
}

// Default реализует Player и поддерживает mp3 и wav.
type Default struct{ volumeDB float64 }

// New создаёт плеер без изменения громкости (0 dB).
func New() *Default { return &Default{volumeDB: 0} }

// NewWithVolume создаёт плеер с предустановленной громкостью в dB (отрицательные: тише).
func NewWithVolume(db float64) *Default { return &Default{volumeDB: db} }

// Play блокируется до конца воспроизведения или отмены ctx.
func (d *Default) Play(ctx context.Context, format string, r io.ReadCloser) error {
	decode, ok := decoders[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unsupported format %q for direct playback; use mp3 or wav", format)
	}
	streamer, f, err := decode(r)
	if err != nil {
		return err
	}
	defer streamer.Close()

	if err := speaker.Init(f.SampleRate, f.SampleRate.N(time.Second/10)); err != nil {
		return err
	}
	vol := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   d.volumeDB,
		Silent:   false,
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return context.Cause(ctx)
	}
}
