package encoder

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WavEncoder writes 16-bit PCM blocks into a RIFF container. Not safe for
// concurrent use.
type WavEncoder struct {
	enc   *wav.Encoder
	buf   *audio.IntBuffer
	total uint64
}

func NewWav(w io.WriteSeeker) *WavEncoder {
	return &WavEncoder{
		enc: wav.NewEncoder(w, SampleRate, BitsPerSample, Channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
			SourceBitDepth: BitsPerSample,
		},
	}
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	if len(block) == 0 {
		return nil
	}
	e.buf.Data = e.buf.Data[:0]
	for _, s := range block {
		e.buf.Data = append(e.buf.Data, int(s))
	}
	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("writing wav block: %w", err)
	}
	e.total += uint64(len(block))
	return nil
}

// Close patches the RIFF sizes; the writer must still be open.
func (e *WavEncoder) Close() error { return e.enc.Close() }

func (e *WavEncoder) TotalFrames() uint64 { return e.total }
