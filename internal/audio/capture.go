package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Format is the s16le layout requested from Pulse.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond is the PCM data rate of f.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// fragmentBytes asks Pulse for roughly 100ms per pushed fragment.
func (f Format) fragmentBytes() uint32 {
	size := f.BytesPerSecond() / 10
	blockAlign := f.Channels * 2
	if size < blockAlign {
		return uint32(blockAlign)
	}
	return uint32(size - size%blockAlign)
}

// Capture accumulates PCM fragments pushed by one Pulse record stream.
type Capture struct {
	device Device
	format Format

	client *pulse.Client
	stream *pulse.RecordStream

	stopCh   chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	fragments [][]byte
	stopped   bool

	bytes atomic.Int64
}

// StartCapture opens an s16le record stream on selected and starts it.
// Cancelling ctx stops the capture.
func StartCapture(ctx context.Context, selected Device, format Format) (*Capture, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid capture sample rate %d", format.SampleRate)
	}
	var layout pulse.RecordOption
	switch format.Channels {
	case 1:
		layout = pulse.RecordMono
	case 2:
		layout = pulse.RecordStereo
	default:
		return nil, fmt.Errorf("invalid capture channel count %d", format.Channels)
	}

	client, err := newClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := newCapture(selected, format)
	capture.client = client

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		layout,
		pulse.RecordSampleRate(format.SampleRate),
		pulse.RecordBufferFragmentSize(format.fragmentBytes()),
		pulse.RecordMediaName("warbler bird recording"),
	)
	if err != nil {
		_ = capture.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = capture.Stop()
		case <-capture.stopCh:
		}
	}()

	return capture, nil
}

func newCapture(device Device, format Format) *Capture {
	return &Capture{
		device: device,
		format: format,
		stopCh: make(chan struct{}),
	}
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// Format returns the negotiated PCM layout.
func (c *Capture) Format() Format {
	return c.format
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Fragments returns a snapshot of the fragments pushed so far, in arrival order.
func (c *Capture) Fragments() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.fragments))
	copy(out, c.fragments)
	return out
}

// Stop halts the stream and releases the Pulse client. Only the first call
// does any work.
func (c *Capture) Stop() error {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		close(c.stopCh)
		c.mu.Unlock()

		if c.stream != nil {
			c.stream.Stop()
			c.stream.Close()
		}
		if c.client != nil {
			c.client.Close()
		}
	})
	return nil
}

// onPCM stores one pushed Pulse buffer as a fragment.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return 0, io.EOF
	}

	fragment := make([]byte, len(buffer))
	copy(fragment, buffer)
	c.fragments = append(c.fragments, fragment)
	c.bytes.Add(int64(len(buffer)))
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
