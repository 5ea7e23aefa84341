package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	gowav "github.com/youpy/go-wav"
)

func TestEncodeHeaderLayout(t *testing.T) {
	buf := AudioBuffer{
		SampleRate: 44100,
		Channels: [][]float32{
			{0, 0.5, -0.5},
			{1, -1, 0},
		},
	}

	data, err := Encode(buf)
	require.NoError(t, err)
	require.Len(t, data, 44+3*2*2)

	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, uint32(36+12), binary.LittleEndian.Uint32(data[4:8]))
	require.Equal(t, "WAVE", string(data[8:12]))
	require.Equal(t, "fmt ", string(data[12:16]))
	require.Equal(t, uint32(16), binary.LittleEndian.Uint32(data[16:20]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]))
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[22:24]))
	require.Equal(t, uint32(44100), binary.LittleEndian.Uint32(data[24:28]))
	require.Equal(t, uint32(44100*2*2), binary.LittleEndian.Uint32(data[28:32]))
	require.Equal(t, uint16(4), binary.LittleEndian.Uint16(data[32:34]))
	require.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	require.Equal(t, "data", string(data[36:40]))
	require.Equal(t, uint32(12), binary.LittleEndian.Uint32(data[40:44]))
}

func TestEncodeInterleavesFramesThenChannels(t *testing.T) {
	buf := AudioBuffer{
		SampleRate: 8000,
		Channels: [][]float32{
			{0.5, -0.5},
			{1, -1},
		},
	}

	data, err := Encode(buf)
	require.NoError(t, err)

	got := make([]int16, 4)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(data[44+i*2:]))
	}
	require.Equal(t, []int16{16383, 32767, -16384, -32768}, got)
}

func TestQuantizeAsymmetricScaleAndClamp(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{in: 0, want: 0},
		{in: 1, want: 32767},
		{in: -1, want: -32768},
		{in: 1.5, want: 32767},
		{in: -7, want: -32768},
		{in: 0.25, want: 8191},
		{in: -0.25, want: -8192},
		{in: float32(math.NaN()), want: 0},
		{in: float32(math.Inf(1)), want: 32767},
		{in: float32(math.Inf(-1)), want: -32768},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, quantize(tc.in), "input %v", tc.in)
	}
}

func TestEncodeLengthMatchesFrameAndChannelCount(t *testing.T) {
	for _, channels := range []int{1, 2, 3} {
		for _, frames := range []int{0, 1, 441} {
			buf := AudioBuffer{SampleRate: 22050, Channels: make([][]float32, channels)}
			for ch := range buf.Channels {
				buf.Channels[ch] = make([]float32, frames)
			}

			data, err := Encode(buf)
			require.NoError(t, err)
			require.Len(t, data, 44+frames*channels*2)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	buf := AudioBuffer{SampleRate: 16000, Channels: [][]float32{sineWave(1600, 440, 16000)}}

	first, err := Encode(buf)
	require.NoError(t, err)
	second, err := Encode(buf)
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second))
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		buf  AudioBuffer
		want string
	}{
		{name: "no channels", buf: AudioBuffer{SampleRate: 44100}, want: "channel count"},
		{name: "zero sample rate", buf: AudioBuffer{Channels: [][]float32{{0}}}, want: "sample rate"},
		{name: "frame mismatch", buf: AudioBuffer{SampleRate: 44100, Channels: [][]float32{{0, 0}, {0}}}, want: "channel 1 has 1 frames"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.buf)
			require.Error(t, err)

			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid))
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestEncodeRoundTripsThroughStandardDecoder(t *testing.T) {
	left := sineWave(2048, 440, 44100)
	right := sineWave(2048, 1000, 44100)
	right[10] = 3 // clamped to 1
	right[11] = -3

	data, err := Encode(AudioBuffer{SampleRate: 44100, Channels: [][]float32{left, right}})
	require.NoError(t, err)

	reader := gowav.NewReader(bytes.NewReader(data))
	format, err := reader.Format()
	require.NoError(t, err)
	require.Equal(t, uint16(2), format.NumChannels)
	require.Equal(t, uint32(44100), format.SampleRate)
	require.Equal(t, uint16(16), format.BitsPerSample)

	var decoded [][2]int
	for {
		samples, err := reader.ReadSamples(512)
		for _, s := range samples {
			decoded = append(decoded, [2]int{reader.IntValue(s, 0), reader.IntValue(s, 1)})
		}
		if err != nil {
			break
		}
	}
	require.Len(t, decoded, 2048)

	const step = 1.0 / 32767
	for i, pair := range decoded {
		for ch, original := range [][]float32{left, right} {
			want := math.Max(-1, math.Min(1, float64(original[i])))
			got := float64(pair[ch]) / 32767
			if pair[ch] < 0 {
				got = float64(pair[ch]) / 32768
			}
			require.InDelta(t, want, got, step, "frame %d channel %d", i, ch)
		}
	}
}

func TestEncodePCM16MatchesEncodeHeader(t *testing.T) {
	buf := AudioBuffer{SampleRate: 16000, Channels: [][]float32{{0.1, -0.2, 0.3, -0.4}}}
	encoded, err := Encode(buf)
	require.NoError(t, err)

	wrapped, err := EncodePCM16(encoded[HeaderSize:], 16000, 1)
	require.NoError(t, err)
	require.Equal(t, encoded, wrapped)
}

func TestEncodePCM16DropsPartialFrame(t *testing.T) {
	wrapped, err := EncodePCM16([]byte{1, 0, 2, 0, 3}, 16000, 2)
	require.NoError(t, err)
	require.Len(t, wrapped, HeaderSize+4)
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(wrapped[40:44]))
}

func TestEncodePCM16RejectsBadFormat(t *testing.T) {
	_, err := EncodePCM16(nil, 0, 1)
	require.Error(t, err)
	_, err = EncodePCM16(nil, 16000, 0)
	require.Error(t, err)
}

func sineWave(frames int, freq float64, rate float64) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = float32(0.8 * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}
