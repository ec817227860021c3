package printers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"
)

const writeChar = "0000ff02-0000-1000-8000-00805f9b34fb" // writable characteristic UUID

const (
	sendRetryDelay = 10 * time.Millisecond
	maxRetries     = 3
)

// SearchParameters identify the printer to connect to, by advertised name or
// MAC address.
type SearchParameters struct {
	Name       string
	MACAddress string
}

// BLE is a [Transport] over a Bluetooth Low Energy characteristic.
type BLE struct {
	dev       bluetooth.Device
	tx        bluetooth.DeviceCharacteristic
	connected bool
}

// ConnectBLE scans for the printer, connects and locates the writable
// characteristic.
func ConnectBLE(ctx context.Context, adapter *bluetooth.Adapter, sp SearchParameters) (*BLE, error) {
	found, err := locateDevice(ctx, adapter, sp)
	if err != nil {
		return nil, fmt.Errorf("failed to locate device: %w", err)
	}
	device, err := adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}
	tx, err := locateWriteCharacteristic(device)
	if err != nil {
		return nil, fmt.Errorf("failed to locate services: %w", err)
	}
	slog.Info("connected to printer", "address", device.Address)
	return &BLE{dev: device, tx: tx, connected: true}, nil
}

func (b *BLE) IsConnected() bool {
	return b.connected
}

// Write sends one chunk over the characteristic, retrying transient write
// failures.
func (b *BLE) Write(p []byte) error {
	if !b.connected {
		return ErrNotConnected
	}
	for i := range maxRetries {
		_, err := b.tx.WriteWithoutResponse(p)
		if err == nil {
			return nil
		}
		slog.Warn("write failed, retrying", "attempt", i+1, "error", err)
		time.Sleep(sendRetryDelay)
	}
	return errors.New("BLE write failed after retries")
}

// Disconnect tears down the connection.
func (b *BLE) Disconnect() error {
	b.connected = false
	if err := b.dev.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from printer: %w", err)
	}
	slog.Info("disconnected from printer", "address", b.dev.Address)
	return nil
}

func locateDevice(ctx context.Context, adapter *bluetooth.Adapter, sp SearchParameters) (bluetooth.ScanResult, error) {
	var d bluetooth.ScanResult
	if sp.MACAddress == "" && sp.Name == "" {
		return d, errors.New("either device name or MAC address is required")
	}
	var found bool
	err := adapter.Scan(func(a *bluetooth.Adapter, sr bluetooth.ScanResult) {
		if ctx.Err() != nil {
			if err := a.StopScan(); err != nil {
				slog.ErrorContext(ctx, "failed to stop scanning", "error", err)
			}
			return
		}
		if sp.matches(sr.LocalName(), sr.Address.String()) {
			slog.Info("found printer", "name", sr.LocalName(), "address", sr.Address)
			if err := a.StopScan(); err != nil {
				slog.ErrorContext(ctx, "failed to stop scanning", "error", err)
			}
			d, found = sr, true
		}
	})
	if err != nil {
		return d, fmt.Errorf("failed to start scanning: %w", err)
	}
	slog.DebugContext(ctx, "scanning complete")
	return d, scanError(ctx, found, sp)
}

// matches reports whether an advertisement with the given local name and
// address identifies the printer.
func (sp SearchParameters) matches(name, address string) bool {
	return (sp.Name != "" && name == sp.Name) ||
		(sp.MACAddress != "" && address == sp.MACAddress)
}

// scanError decides the outcome of a finished scan: cancellation wins over
// not-found, and a successful match yields nil.
func scanError(ctx context.Context, found bool, sp SearchParameters) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scanning was cancelled: %w", err)
	}
	if !found {
		return fmt.Errorf("device not found (name %q, mac %q)", sp.Name, sp.MACAddress)
	}
	return nil
}

// locateWriteCharacteristic discovers the writable characteristic on the
// device.
func locateWriteCharacteristic(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	var zero bluetooth.DeviceCharacteristic
	services, err := device.DiscoverServices(nil) // all
	if err != nil {
		return zero, fmt.Errorf("failed to discover services: %w", err)
	}
	if len(services) == 0 {
		return zero, fmt.Errorf("no services found on device %s", device.Address)
	}
	for _, service := range services {
		chars, err := service.DiscoverCharacteristics(nil) // all
		if err != nil {
			return zero, fmt.Errorf("failed to discover characteristics for service %s: %w", service.UUID().String(), err)
		}
		for _, char := range chars {
			slog.Debug("discovered characteristic", "uuid", char.UUID().String())
			if char.UUID().String() == writeChar {
				return char, nil
			}
		}
	}
	return zero, fmt.Errorf("write characteristic %s not found", writeChar)
}
