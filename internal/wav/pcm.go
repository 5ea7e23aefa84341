package wav

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodePCM16 de-interleaves little-endian int16 capture bytes into an AudioBuffer.
// A trailing partial frame is dropped.
func DecodePCM16(pcm []byte, sampleRate int, channels int) (AudioBuffer, error) {
	if channels <= 0 || channels > math.MaxUint16 {
		return AudioBuffer{}, &InvalidInputError{Reason: fmt.Sprintf("channel count %d out of range", channels)}
	}
	if sampleRate <= 0 {
		return AudioBuffer{}, &InvalidInputError{Reason: "sample rate must be > 0"}
	}

	blockAlign := channels * bytesPerSample
	frames := len(pcm) / blockAlign

	buf := AudioBuffer{
		SampleRate: uint32(sampleRate),
		Channels:   make([][]float32, channels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}

	offset := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(pcm[offset:]))
			buf.Channels[ch][i] = dequantize(int(v), bitsPerSample)
			offset += bytesPerSample
		}
	}
	return buf, nil
}

// dequantize maps a signed integer sample of the given bit depth into [-1, 1],
// mirroring the asymmetric scale used by quantize.
func dequantize(v int, bits int) float32 {
	full := float64(int64(1) << (bits - 1))
	if v < 0 {
		return float32(float64(v) / full)
	}
	return float32(float64(v) / (full - 1))
}
