// ABOUTME: Malgo (miniaudio) driver with separate playback and capture devices
// ABOUTME: Runs 16-bit devices with 10ms periods and pumps from their callbacks
package driver

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/gen2brain/malgo"
)

// periods is the number of 10ms periods miniaudio keeps queued
const periods = 3

// Malgo drives miniaudio through malgo
type Malgo struct {
	base

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	devices  [2]*malgo.Device
}

// NewMalgo creates a malgo driver
func NewMalgo(cfg Config) *Malgo {
	return &Malgo{base: base{cfg: cfg}}
}

func (m *Malgo) Name() string { return "malgo" }

// OnInit creates the miniaudio context
func (m *Malgo) OnInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx != nil {
		return nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx
	log.Printf("malgo: context initialized")
	return nil
}

// OnTerminate releases any remaining devices and the context
func (m *Malgo) OnTerminate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range adm.Directions {
		m.closeDevice(d)
	}
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
}

func (m *Malgo) OnInitPlayout() bool   { return m.initDevice(adm.Playout) }
func (m *Malgo) OnInitRecording() bool { return m.initDevice(adm.Recording) }

func (m *Malgo) initDevice(d adm.Direction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		log.Printf("malgo: %s init before context init", d)
		return false
	}
	m.closeDevice(d)

	deviceType := malgo.Playback
	if d == adm.Recording {
		deviceType = malgo.Capture
	}

	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	sub := &deviceConfig.Playback
	if d == adm.Recording {
		sub = &deviceConfig.Capture
	}
	sub.Format = malgo.FormatS16
	sub.Channels = uint32(m.cfg.channels(d))
	deviceConfig.SampleRate = uint32(m.cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(audio.FramesPerBuffer(m.cfg.SampleRate))
	deviceConfig.Periods = periods
	deviceConfig.Alsa.NoMMap = 1

	if m.cfg.DeviceIndex >= 0 {
		infos, err := m.malgoCtx.Devices(deviceType)
		if err != nil || m.cfg.DeviceIndex >= len(infos) {
			log.Printf("malgo: %s device %d unavailable (%v), using default", d, m.cfg.DeviceIndex, err)
		} else {
			sub.DeviceID = infos[m.cfg.DeviceIndex].ID.Pointer()
		}
	}

	frameBytes := m.cfg.channels(d) * audio.BytesPerSample
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			n := int(frameCount) * frameBytes
			if d == adm.Playout {
				m.fillPlayout(pOutputSample[:n])
			} else {
				m.deliverRecording(pInputSamples[:n])
			}
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		log.Printf("malgo: failed to initialize %s device: %v", d, err)
		m.SetError(d)
		return false
	}
	m.devices[d] = device

	log.Printf("malgo: %s device initialized: %dHz, %d channels, S16", d, m.cfg.SampleRate, m.cfg.channels(d))
	return true
}

func (m *Malgo) OnStartPlayout()   { m.startDevice(adm.Playout) }
func (m *Malgo) OnStartRecording() { m.startDevice(adm.Recording) }

func (m *Malgo) startDevice(d adm.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device := m.devices[d]
	if device == nil {
		m.SetError(d)
		return
	}
	if err := device.Start(); err != nil {
		log.Printf("malgo: failed to start %s device: %v", d, err)
		m.SetError(d)
	}
}

func (m *Malgo) OnStopPlayout()   { m.stopDevice(adm.Playout) }
func (m *Malgo) OnStopRecording() { m.stopDevice(adm.Recording) }

func (m *Malgo) stopDevice(d adm.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeDevice(d)
}

// closeDevice stops and uninitializes d's device (must hold m.mu)
func (m *Malgo) closeDevice(d adm.Direction) {
	device := m.devices[d]
	if device == nil {
		return
	}
	if device.IsStarted() {
		if err := device.Stop(); err != nil {
			log.Printf("Warning: %s device stop error: %v", d, err)
		}
	}
	device.Uninit()
	m.devices[d] = nil
}

// Delay estimates latency from the queued periods
func (m *Malgo) Delay(adm.Direction) time.Duration {
	return periods * time.Second / audio.BuffersPerSecond
}

// Devices lists the endpoints available for d
func (m *Malgo) Devices(d adm.Direction) ([]DeviceInfo, error) {
	return ListDevices(d)
}

// ListDevices enumerates playback or capture endpoints with a temporary context
func ListDevices(d adm.Direction) ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	deviceType := malgo.Playback
	if d == adm.Recording {
		deviceType = malgo.Capture
	}
	infos, err := ctx.Devices(deviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s devices: %w", d, err)
	}

	out := make([]DeviceInfo, len(infos))
	for i := range infos {
		out[i] = DeviceInfo{
			Index:   i,
			Name:    infos[i].Name(),
			Default: infos[i].IsDefault != 0,
		}
	}
	return out, nil
}
