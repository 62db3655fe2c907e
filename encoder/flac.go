package encoder

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder writes verbatim mono frames and lets the library pick a
// predictor per frame. Not safe for concurrent use.
type FlacEncoder struct {
	enc     *flac.Encoder
	samples []int32
	total   uint64
}

func NewFlac(w io.Writer) (*FlacEncoder, error) {
	enc, err := flac.NewEncoder(w, &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	return &FlacEncoder{enc: enc, samples: make([]int32, 0, BlockSize)}, nil
}

func (e *FlacEncoder) EncodeBlock(block []int16) error {
	if len(block) == 0 {
		return nil
	}
	e.samples = e.samples[:0]
	for _, s := range block {
		e.samples = append(e.samples, int32(s))
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   e.samples,
			NSamples:  len(block),
		}},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.total += uint64(len(block))
	return nil
}

func (e *FlacEncoder) Close() error { return e.enc.Close() }

func (e *FlacEncoder) TotalFrames() uint64 { return e.total }
