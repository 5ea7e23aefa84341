// Package audio handles PulseAudio device discovery, selection, and PCM capture.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Pulse names the loopback source of every sink "<sink>.monitor".
const monitorSuffix = ".monitor"

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
	// Monitor sources record what the machine plays, not the microphone.
	Monitor bool
}

// usable returns why d cannot record, or "" when it can.
func (d Device) usable() string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	default:
		return ""
	}
}

// Selection is the chosen source. Warning is set when a fallback was used.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func newClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("warbler"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns every Pulse source, flagging the server default.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var reply pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return devicesFromSources(reply, defaultSource.ID()), nil
}

func devicesFromSources(sources []*pulseproto.GetSourceInfoReply, defaultID string) []Device {
	devices := make([]Device, 0, len(sources))
	for _, source := range sources {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
			Monitor:     strings.HasSuffix(source.SourceName, monitorSuffix),
		})
	}
	return devices
}

// SelectDevice resolves the audio.input and audio.fallback terms against live sources.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

// selectDeviceFromList picks input, or fallback when input is muted or
// unavailable. "default" (or empty) means the server's default source.
func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}
	set := deviceSet(devices)

	primary, err := set.resolve(input, "audio.input")
	if err != nil {
		return Selection{}, err
	}
	reason := primary.usable()
	if reason == "" {
		return Selection{Device: primary}, nil
	}

	backup, err := set.resolve(fallback, "audio.fallback")
	if err != nil {
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, reason, err)
	}
	if why := backup.usable(); why != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", backup.ID, why)
	}

	return Selection{
		Device:   backup,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, backup.ID),
		Fallback: primary.ID != backup.ID,
	}, nil
}

type deviceSet []Device

func (s deviceSet) resolve(term string, key string) (Device, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "default" {
		for _, d := range s {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}

	// A microphone beats a monitor source whose name happens to match too.
	var monitor *Device
	for i := range s {
		if !deviceMatches(s[i], term) {
			continue
		}
		if !s[i].Monitor {
			return s[i], nil
		}
		if monitor == nil {
			monitor = &s[i]
		}
	}
	if monitor != nil {
		return *monitor, nil
	}
	return Device{}, fmt.Errorf("%s %q did not match any device", key, term)
}

// deviceMatches does a case-insensitive substring match on id and description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

var sourceStates = map[uint32]string{0: "running", 1: "idle", 2: "suspended"}

func sourceStateString(state uint32) string {
	if name, ok := sourceStates[state]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// sourceAvailable reports the availability of the active port. Pulse encodes
// port availability as unknown=0, no=1, yes=2; sources without ports count
// as available.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	for _, port := range source.Ports {
		if port.Name == source.ActivePortName {
			return port.Available != 1
		}
	}
	return true
}
