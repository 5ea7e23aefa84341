// Package wav encodes captured audio into canonical 16-bit PCM RIFF/WAVE bytes.
package wav

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// HeaderSize is the fixed RIFF + fmt + data header length.
	HeaderSize = 44

	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	formatPCM      = 1
)

// AudioBuffer is a decoded, per-channel set of float samples in [-1, 1].
type AudioBuffer struct {
	SampleRate uint32
	Channels   [][]float32
}

// NumChannels returns the channel count.
func (b AudioBuffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the per-channel sample count, or 0 for an empty buffer.
func (b AudioBuffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b AudioBuffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// InvalidInputError reports an AudioBuffer that cannot be encoded.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid audio input: " + e.Reason
}

// Validate checks encoder preconditions.
func (b AudioBuffer) Validate() error {
	if len(b.Channels) == 0 {
		return &InvalidInputError{Reason: "channel count must be >= 1"}
	}
	if len(b.Channels) > math.MaxUint16 {
		return &InvalidInputError{Reason: fmt.Sprintf("channel count %d exceeds %d", len(b.Channels), math.MaxUint16)}
	}
	if b.SampleRate == 0 {
		return &InvalidInputError{Reason: "sample rate must be > 0"}
	}
	frames := len(b.Channels[0])
	for ch, samples := range b.Channels[1:] {
		if len(samples) != frames {
			return &InvalidInputError{Reason: fmt.Sprintf("channel %d has %d frames, channel 0 has %d", ch+1, len(samples), frames)}
		}
	}
	return nil
}

// Encode renders buf as a 44-byte-header PCM WAV with interleaved int16 samples.
func Encode(buf AudioBuffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	channels := buf.NumChannels()
	frames := buf.Frames()
	dataSize := frames * channels * bytesPerSample
	if uint64(dataSize)+36 > math.MaxUint32 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("data size %d exceeds RIFF limit", dataSize)}
	}

	out := make([]byte, HeaderSize+dataSize)
	putHeader(out[:HeaderSize], buf.SampleRate, uint16(channels), uint32(dataSize))

	offset := HeaderSize
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(out[offset:], uint16(quantize(buf.Channels[ch][i])))
			offset += bytesPerSample
		}
	}
	return out, nil
}

// EncodePCM16 wraps already-quantized little-endian int16 PCM in a WAV header.
func EncodePCM16(pcm []byte, sampleRate int, channels int) ([]byte, error) {
	if channels <= 0 || channels > math.MaxUint16 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("channel count %d out of range", channels)}
	}
	if sampleRate <= 0 {
		return nil, &InvalidInputError{Reason: "sample rate must be > 0"}
	}
	blockAlign := channels * bytesPerSample
	usable := len(pcm) - len(pcm)%blockAlign
	if uint64(usable)+36 > math.MaxUint32 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("data size %d exceeds RIFF limit", usable)}
	}

	out := make([]byte, HeaderSize+usable)
	putHeader(out[:HeaderSize], uint32(sampleRate), uint16(channels), uint32(usable))
	copy(out[HeaderSize:], pcm[:usable])
	return out, nil
}

// putHeader writes the canonical RIFF/WAVE header into header[0:44].
func putHeader(header []byte, sampleRate uint32, channels uint16, dataSize uint32) {
	blockAlign := uint32(channels) * bytesPerSample

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], sampleRate*blockAlign)
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)
}

// quantize clamps s to [-1, 1] and scales negatives by 32768, the rest by 32767.
// Conversion truncates toward zero.
func quantize(s float32) int16 {
	v := float64(s)
	switch {
	case math.IsNaN(v):
		return 0
	case v < -1:
		v = -1
	case v > 1:
		v = 1
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}
