// Package audio plays the CHIP-8 buzzer while the sound timer runs.
package audio

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const (
	SampleRate = beep.SampleRate(44100)
	volume     = 0.25
)

// Mute is a buzzer that makes no sound.
type Mute struct{}

func (Mute) Buzz(bool)    {}
func (Mute) Close() error { return nil }

// Beeper drives the speaker with a paused, endlessly looping streamer that is
// unpaused while the buzzer is on.
type Beeper struct {
	ctrl   *beep.Ctrl
	closer func() error
	on     bool
}

// SquareWave returns an endless square wave at freq Hz.
func SquareWave(sr beep.SampleRate, freq float64) beep.Streamer {
	step := freq / float64(sr)
	phase := 0.0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := volume
			if phase >= 0.5 {
				v = -volume
			}
			samples[i][0], samples[i][1] = v, v
			_, phase = math.Modf(phase + step)
		}
		return len(samples), true
	})
}

// NewTone opens the speaker and prepares a square wave tone.
func NewTone(freq float64) (*Beeper, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/30)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	return newBeeper(SquareWave(SampleRate, freq), nil), nil
}

// NewMP3 opens the speaker and prepares the given mp3 file, looped, as the
// buzzer sound.
func NewMP3(path string) (*Beeper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/30)); err != nil {
		_ = streamer.Close()
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}

	var s beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != SampleRate {
		s = beep.Resample(4, format.SampleRate, SampleRate, s)
	}
	return newBeeper(s, streamer.Close), nil
}

func newBeeper(s beep.Streamer, closer func() error) *Beeper {
	b := &Beeper{
		ctrl:   &beep.Ctrl{Streamer: s, Paused: true},
		closer: closer,
	}
	speaker.Play(b.ctrl)
	return b
}

func (b *Beeper) Buzz(on bool) {
	if on == b.on {
		return
	}
	b.on = on
	speaker.Lock()
	b.ctrl.Paused = !on
	speaker.Unlock()
}

// Close silences the buzzer and releases the sound source. The speaker itself
// stays initialized.
func (b *Beeper) Close() error {
	speaker.Lock()
	b.ctrl.Paused = true
	b.ctrl.Streamer = nil //drops the ctrl from the mixer
	speaker.Unlock()
	if b.closer != nil {
		return b.closer()
	}
	return nil
}
