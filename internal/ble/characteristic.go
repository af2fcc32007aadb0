// Package ble owns the Bluetooth LE side of the printing pipeline: device
// discovery, the single shared printer connection, and the paced chunked
// writes to the printer's GATT characteristic.
package ble

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

// Capability describes how a GATT characteristic accepts writes.
type Capability int

const (
	CapabilityNone Capability = iota
	// CapabilityWrite is an acknowledged write.
	CapabilityWrite
	// CapabilityWriteWithoutResponse is the unacknowledged fast path most
	// thermal printers expose.
	CapabilityWriteWithoutResponse
)

func (c Capability) String() string {
	switch c {
	case CapabilityWrite:
		return "write"
	case CapabilityWriteWithoutResponse:
		return "write-without-response"
	default:
		return "none"
	}
}

// Characteristic is the printer's writable GATT endpoint. The transport
// chooses between acknowledged and unacknowledged writes based on the
// capability resolved during discovery.
type Characteristic interface {
	Capability() Capability
	Write(p []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
}

// mustUUID expands a 16-bit assigned number into a full 128-bit UUID.
func mustUUID(short string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(fmt.Sprintf("0000%s-0000-1000-8000-00805f9b34fb", short))
	if err != nil {
		panic(err)
	}
	return uuid
}

func mustFullUUID(full string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(full)
	if err != nil {
		panic(err)
	}
	return uuid
}

// candidateServices are the primary services commonly exposed by BLE
// receipt printers. Scanning is scoped to these but connection accepts any
// device the scan surfaces.
var candidateServices = []bluetooth.UUID{
	mustUUID("18f0"), // generic ESC/POS printer service
	mustUUID("ae30"), // cat-printer family
	mustUUID("ff00"), // Phomemo family
	mustUUID("ffe0"), // HM-10 style serial bridges
	mustUUID("ff12"),
	mustFullUUID("49535343-fe7d-4ae5-8fa9-9fafd205e455"), // ISSC transparent UART
}

// writableCharacteristics maps known printer input characteristics to the
// write capability their hardware advertises. The BLE stack here exposes no
// per-characteristic property flags, so capability is resolved from this
// table; anything under a candidate service but not listed falls back to
// acknowledged write.
var writableCharacteristics = map[bluetooth.UUID]Capability{
	mustUUID("2af1"): CapabilityWriteWithoutResponse,
	mustUUID("ae01"): CapabilityWriteWithoutResponse,
	mustUUID("ff02"): CapabilityWriteWithoutResponse,
	mustUUID("ffe1"): CapabilityWriteWithoutResponse,
	mustFullUUID("49535343-8841-43f4-a8d4-ecbe34729bb3"): CapabilityWriteWithoutResponse,
}

// gattCharacteristic adapts a discovered characteristic to the
// Characteristic interface with its resolved capability.
type gattCharacteristic struct {
	raw        bluetooth.DeviceCharacteristic
	capability Capability
}

func (c *gattCharacteristic) Capability() Capability { return c.capability }

func (c *gattCharacteristic) Write(p []byte) (int, error) {
	return c.raw.Write(p)
}

func (c *gattCharacteristic) WriteWithoutResponse(p []byte) (int, error) {
	return c.raw.WriteWithoutResponse(p)
}
