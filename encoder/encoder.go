package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096

	WAVHeaderSize = 44
)

// Encoder wraps mono 16 kHz 16-bit samples in a container.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	TotalFrames() uint64
}

// Formats lists the containers New accepts; the first is the default.
var Formats = []string{"wav", "flac"}

func New(format string, w io.WriteSeeker) (Encoder, error) {
	switch format {
	case "", "wav":
		return NewWav(w), nil
	case "flac":
		return NewFlac(w)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Samples decodes little-endian S16 PCM.
func Samples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// WriteFile encodes pcm into a new file at path in BlockSize chunks.
func WriteFile(path, format string, pcm []byte) (uint64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc, err := New(format, f)
	if err != nil {
		return 0, err
	}

	samples := Samples(pcm)
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			enc.Close()
			return 0, err
		}
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("finalizing %s: %w", format, err)
	}
	// The flac encoder closes the file itself.
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return 0, err
	}
	return enc.TotalFrames(), nil
}
