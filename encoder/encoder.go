// Package encoder compresses recorded PCM for upload.
package encoder

import "math"

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	// Ext and ContentType describe the encoded container for upload.
	Ext() string
	ContentType() string
}

// PCM16 converts samples in [-1, 1] to 16-bit PCM, clipping anything
// outside that range.
func PCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * math.MaxInt16)
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}

// Encode feeds samples to enc in BlockSize blocks and closes it.
func Encode(enc Encoder, samples []float32) ([]byte, error) {
	pcm := PCM16(samples)
	for len(pcm) > 0 {
		n := min(BlockSize, len(pcm))
		if err := enc.EncodeBlock(pcm[:n]); err != nil {
			return nil, err
		}
		pcm = pcm[n:]
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
