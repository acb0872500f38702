// SPDX-License-Identifier: MIT
package source

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// DefaultDeviceID selects the system default input device.
const DefaultDeviceID = -1

// Initialize sets up the PortAudio subsystem. Must be called before
// any capture operation and paired with a Terminate call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem. Defer this
// immediately after Initialize succeeds.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// InputDevice retrieves the audio input device for the given ID.
// DefaultDeviceID returns the system default input device.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == DefaultDeviceID {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	return devices[deviceID], nil
}

// Device is a host audio device summary for listings.
type Device struct {
	ID             int
	Name           string
	InputChannels  int
	OutputChannels int
	SampleRate     float64
	LowLatencyMs   float64
	HighLatencyMs  float64
	DefaultInput   bool
}

// Kind describes the device direction for display.
func (d Device) Kind() string {
	switch {
	case d.InputChannels > 0 && d.OutputChannels > 0:
		return "Input/Output"
	case d.InputChannels > 0:
		return "Input"
	case d.OutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// ListDevices returns summaries of all host audio devices, with the
// system default input marked.
func ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	// Hosts without any input device simply get no marker.
	defaultInput, _ := portaudio.DefaultInputDevice()

	out := make([]Device, 0, len(devices))
	for i, device := range devices {
		out = append(out, Device{
			ID:             i,
			Name:           device.Name,
			InputChannels:  device.MaxInputChannels,
			OutputChannels: device.MaxOutputChannels,
			SampleRate:     device.DefaultSampleRate,
			LowLatencyMs:   device.DefaultLowInputLatency.Seconds() * 1000,
			HighLatencyMs:  device.DefaultHighInputLatency.Seconds() * 1000,
			DefaultInput:   defaultInput != nil && device == defaultInput,
		})
	}
	return out, nil
}
