package app

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/warbler/internal/wav"
)

func writeClip(t *testing.T, rate uint32, frames int) string {
	t.Helper()

	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	data, err := wav.Encode(wav.AudioBuffer{SampleRate: rate, Channels: [][]float32{samples}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
