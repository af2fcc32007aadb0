package ble

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"
)

var (
	// ErrNoAdapter means the platform has no usable Bluetooth capability.
	ErrNoAdapter = errors.New("ble: bluetooth adapter unavailable")
	// ErrNoDevice means the scan finished without surfacing a printer.
	ErrNoDevice = errors.New("ble: no printer found")
	// ErrNoWritableCharacteristic means the chosen device exposes no
	// service with a characteristic this service can write to.
	ErrNoWritableCharacteristic = errors.New("ble: device has no writable characteristic")
)

// Device is the subset of a connected peripheral the connection manager
// tracks.
type Device interface {
	Address() string
	Disconnect() error
}

// Dialer finds a printer and hands back the connected device together with
// its writable characteristic. Implementations surface device-initiated
// link loss through the handler registered with OnDisconnect.
type Dialer interface {
	Dial(ctx context.Context) (Device, Characteristic, error)
	OnDisconnect(handler func(address string))
}

// AdapterDialer dials printers through the system Bluetooth adapter.
type AdapterDialer struct {
	adapter      *bluetooth.Adapter
	log          zerolog.Logger
	onDisconnect func(address string)
	enabled      bool
}

// NewAdapterDialer wraps the default adapter. Enable is deferred to the
// first dial so construction never fails on machines without Bluetooth.
func NewAdapterDialer(log zerolog.Logger) *AdapterDialer {
	return &AdapterDialer{
		adapter: bluetooth.DefaultAdapter,
		log:     log.With().Str("component", "ble").Logger(),
	}
}

func (d *AdapterDialer) OnDisconnect(handler func(address string)) {
	d.onDisconnect = handler
}

func (d *AdapterDialer) ensureEnabled() error {
	if d.enabled {
		return nil
	}
	if err := d.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	d.adapter.SetConnectHandler(func(dev bluetooth.Device, connected bool) {
		if connected {
			d.log.Debug().Str("address", dev.Address.String()).Msg("link up")
			return
		}
		d.log.Info().Str("address", dev.Address.String()).Msg("device disconnected")
		if d.onDisconnect != nil {
			d.onDisconnect(dev.Address.String())
		}
	})
	d.enabled = true
	return nil
}

// Dial scans for the first advertising printer, connects, and probes its
// services for a writable characteristic. Any device advertising one of
// the candidate printer services is accepted; there is no name filter.
func (d *AdapterDialer) Dial(ctx context.Context) (Device, Characteristic, error) {
	if err := d.ensureEnabled(); err != nil {
		return nil, nil, err
	}

	result, err := d.scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	d.log.Info().
		Str("name", result.LocalName()).
		Str("address", result.Address.String()).
		Msg("connecting to printer")

	dev, err := d.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, nil, fmt.Errorf("ble: connect %s: %w", result.Address.String(), err)
	}

	char, err := firstWritable(dev)
	if err != nil {
		_ = dev.Disconnect()
		return nil, nil, err
	}
	d.log.Info().Stringer("capability", char.Capability()).Msg("printer ready")
	return &adapterDevice{dev: dev}, char, nil
}

func (d *AdapterDialer) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	go func() {
		err := d.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !advertisesCandidateService(result) {
				return
			}
			select {
			case found <- result:
			default:
			}
			_ = adapter.StopScan()
		})
		if err != nil {
			scanErr <- err
		}
	}()

	select {
	case result := <-found:
		return result, nil
	case err := <-scanErr:
		return bluetooth.ScanResult{}, fmt.Errorf("%w: scan failed: %v", ErrNoDevice, err)
	case <-ctx.Done():
		_ = d.adapter.StopScan()
		return bluetooth.ScanResult{}, fmt.Errorf("%w: %v", ErrNoDevice, ctx.Err())
	}
}

func advertisesCandidateService(result bluetooth.ScanResult) bool {
	for _, svc := range candidateServices {
		if result.HasServiceUUID(svc) {
			return true
		}
	}
	return false
}

// firstWritable walks every discoverable primary service and each of its
// characteristics in discovery order, stopping at the first one found in
// the writable table. Characteristics under a candidate printer service
// that are not in the table are kept as an acknowledged-write fallback.
func firstWritable(dev bluetooth.Device) (Characteristic, error) {
	services, err := dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}

	var fallback *gattCharacteristic
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		isCandidate := isCandidateService(svc.UUID())
		for _, char := range chars {
			if capability, ok := writableCharacteristics[char.UUID()]; ok {
				return &gattCharacteristic{raw: char, capability: capability}, nil
			}
			if isCandidate && fallback == nil {
				fallback = &gattCharacteristic{raw: char, capability: CapabilityWrite}
			}
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, ErrNoWritableCharacteristic
}

func isCandidateService(uuid bluetooth.UUID) bool {
	for _, svc := range candidateServices {
		if svc == uuid {
			return true
		}
	}
	return false
}

type adapterDevice struct {
	dev bluetooth.Device
}

func (a *adapterDevice) Address() string { return a.dev.Address.String() }

func (a *adapterDevice) Disconnect() error { return a.dev.Disconnect() }
