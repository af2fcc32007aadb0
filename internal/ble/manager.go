package ble

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Manager owns the single shared printer connection. Every print call goes
// through the same Manager instance; any caller may invalidate the
// connection and the reset is immediately visible to the rest of the
// process. State is only reachable through accessors, never by field
// mutation.
//
// The connection is considered usable only while both the cached connected
// flag and the live link state agree. The link flag is maintained by the
// dialer's disconnect observer, which is the one asynchronous transition
// in this component.
type Manager struct {
	dialer Dialer
	log    zerolog.Logger

	mu        sync.Mutex
	dev       Device
	char      Characteristic
	connected bool
	linkUp    bool
}

func NewManager(dialer Dialer, log zerolog.Logger) *Manager {
	m := &Manager{
		dialer: dialer,
		log:    log.With().Str("component", "printer-connection").Logger(),
	}
	dialer.OnDisconnect(m.handleLinkLoss)
	return m
}

// handleLinkLoss resets the shared connection when the device itself
// signals that the link dropped.
func (m *Manager) handleLinkLoss(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil || m.dev.Address() != address {
		return
	}
	m.log.Warn().Str("address", address).Msg("printer link lost, clearing connection")
	m.resetLocked()
}

// Connect discovers and pairs a printer, replacing whatever connection was
// held before. Failures are terminal for the attempt; there is no retry.
func (m *Manager) Connect(ctx context.Context) error {
	dev, char, err := m.dialer.Dial(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("printer connection failed")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dev = dev
	m.char = char
	m.connected = true
	m.linkUp = true
	m.log.Info().Str("address", dev.Address()).Msg("printer connected")
	return nil
}

// Ensure returns the writable characteristic of the current connection
// when it is still live, re-pairing only when it is not. A healthy
// connection is reused without a new discovery scan.
func (m *Manager) Ensure(ctx context.Context) (Characteristic, error) {
	m.mu.Lock()
	if m.connected && m.linkUp && m.char != nil {
		char := m.char
		m.mu.Unlock()
		return char, nil
	}
	m.mu.Unlock()

	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.char, nil
}

// Disconnect asks the device to drop the link and clears the shared
// connection regardless of whether that request succeeded.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	dev := m.dev
	m.resetLocked()
	m.mu.Unlock()

	if dev == nil {
		return nil
	}
	if err := dev.Disconnect(); err != nil {
		m.log.Warn().Err(err).Msg("printer disconnect request failed")
		return err
	}
	m.log.Info().Msg("printer disconnected")
	return nil
}

// Invalidate clears the shared connection. Transport errors call this so
// the next print re-pairs instead of reusing a possibly stale handle.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Connected reports the cached connection state for the UI status
// indicator.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected && m.linkUp
}

func (m *Manager) resetLocked() {
	m.dev = nil
	m.char = nil
	m.connected = false
	m.linkUp = false
}
