// Package beep plays the short audio cues around a recording.
package beep

import (
	"math"
	"sync"
)

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Success: medium pitch, slightly longer
	successFreq   = 900
	successVolume = 0.5
	successDecay  = 40

	// Failure: low pitch double-beep
	failureFreq   = 350
	failureVolume = 0.6
	failureDecay  = 30
)

// Player owns one output device. Cues never block the caller and are
// dropped silently when no device is available.
type Player struct {
	once     sync.Once
	out      *output
	disabled bool

	start, success, failure []int16
}

func New() *Player {
	return &Player{
		start:   generateTick(sampleRate, startFreq, 0.03, startVolume, startDecay),
		success: generateTick(sampleRate, successFreq, 0.05, successVolume, successDecay),
		failure: generateDoubleBeep(sampleRate, failureFreq, 0.08, 0.05, failureVolume, failureDecay),
	}
}

// Disable mutes the player; used by headless runs.
func (p *Player) Disable() { p.disabled = true }

func (p *Player) init() {
	p.once.Do(func() {
		out, err := newOutput()
		if err == nil {
			p.out = out
		}
	})
}

func (p *Player) play(samples []int16) {
	if p.disabled {
		return
	}
	p.init()
	if p.out == nil {
		return
	}
	p.out.play(samples)
}

func (p *Player) Start()   { p.play(p.start) }
func (p *Player) Success() { p.play(p.success) }
func (p *Player) Failure() { p.play(p.failure) }

func (p *Player) Close() {
	if p.out != nil {
		p.out.close()
	}
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range n {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
