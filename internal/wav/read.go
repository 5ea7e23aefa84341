package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	gowav "github.com/youpy/go-wav"
)

const readBatchFrames = 4096

// Reader is the random-access source go-wav needs to walk RIFF chunks.
type Reader interface {
	io.Reader
	io.ReaderAt
}

// Read decodes a mono or stereo integer PCM WAV stream into an AudioBuffer.
func Read(r Reader) (AudioBuffer, error) {
	reader := gowav.NewReader(r)

	format, err := reader.Format()
	if err != nil {
		return AudioBuffer{}, fmt.Errorf("read wav format: %w", err)
	}
	if format.AudioFormat != formatPCM {
		return AudioBuffer{}, fmt.Errorf("unsupported wav audio format %d (only PCM)", format.AudioFormat)
	}
	switch format.BitsPerSample {
	case 16, 24, 32:
	default:
		return AudioBuffer{}, fmt.Errorf("unsupported wav bit depth %d", format.BitsPerSample)
	}
	channels := int(format.NumChannels)
	if channels < 1 || channels > 2 {
		return AudioBuffer{}, fmt.Errorf("unsupported wav channel count %d", channels)
	}
	if format.SampleRate == 0 {
		return AudioBuffer{}, &InvalidInputError{Reason: "sample rate must be > 0"}
	}

	buf := AudioBuffer{
		SampleRate: format.SampleRate,
		Channels:   make([][]float32, channels),
	}
	bits := int(format.BitsPerSample)

	for {
		samples, err := reader.ReadSamples(readBatchFrames)
		for _, sample := range samples {
			for ch := 0; ch < channels; ch++ {
				v := reader.IntValue(sample, uint(ch))
				buf.Channels[ch] = append(buf.Channels[ch], dequantize(v, bits))
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return AudioBuffer{}, fmt.Errorf("read wav samples: %w", err)
		}
	}

	return buf, nil
}

// ReadFile opens and decodes one WAV file from disk.
func ReadFile(path string) (AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return AudioBuffer{}, fmt.Errorf("open wav %q: %w", path, err)
	}
	defer f.Close()

	buf, err := Read(f)
	if err != nil {
		return AudioBuffer{}, fmt.Errorf("decode wav %q: %w", path, err)
	}
	return buf, nil
}
