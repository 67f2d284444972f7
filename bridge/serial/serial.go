// Package serial bridges a drone's neighbor channel onto a physical
// serial link, framing packets with wire.Frame's length+checksum
// envelope so frame boundaries survive a raw byte stream.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"github.com/dronemesh/flypath/core"
	"github.com/dronemesh/flypath/identity"
	"github.com/dronemesh/flypath/transport"
	"github.com/dronemesh/flypath/wire"
)

var _ transport.Transport = (*Bridge)(nil)

const (
	// DefaultBaudRate is used when Config.BaudRate is left at zero.
	DefaultBaudRate = 115200

	readBufSize = 1024
)

// Config holds the configuration for a serial bridge.
type Config struct {
	// Port is the serial port path (e.g., "/dev/ttyUSB0" or "COM3").
	Port string
	// BaudRate is the serial baud rate. Defaults to 115200.
	BaudRate int
	// SharedSecret, if set, encrypts every frame payload written to the
	// port and decrypts every one read from it.
	SharedSecret *identity.SharedSecret
	// Logger is the logger to use. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Bridge implements transport.Transport over a serial connection.
type Bridge struct {
	cfg           Config
	port          serial.Port
	log           *slog.Logger
	mu            sync.RWMutex
	connected     bool
	cancel        context.CancelFunc
	done          chan struct{}
	packetHandler transport.PacketHandler
	stateHandler  transport.StateHandler
}

// New creates a new serial bridge with the given configuration.
func New(cfg Config) *Bridge {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Bridge{
		cfg: cfg,
		log: cfg.Logger.WithGroup("bridge.serial"),
	}
}

// Start opens the serial port and begins reading packets.
func (b *Bridge) Start(ctx context.Context) error {
	if b.cfg.Port == "" {
		return errors.New("serial port is required")
	}

	mode := &serial.Mode{BaudRate: b.cfg.BaudRate}

	port, err := serial.Open(b.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}

	b.mu.Lock()
	b.port = port
	b.connected = true
	b.done = make(chan struct{})
	handler := b.stateHandler
	b.mu.Unlock()

	readCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	go b.readLoop(readCtx)

	b.log.Info("connected to serial port", "port", b.cfg.Port, "baud", b.cfg.BaudRate)

	if handler != nil {
		handler(b, transport.EventConnected)
	}

	return nil
}

// Stop closes the serial port and stops the read loop.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	handler := b.stateHandler
	b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}

	b.mu.Lock()
	b.connected = false
	port := b.port
	b.port = nil
	done := b.done
	b.mu.Unlock()

	var err error
	if port != nil {
		err = port.Close()
	}

	if done != nil {
		<-done
	}

	if handler != nil {
		handler(b, transport.EventDisconnected)
	}

	return err
}

// IsConnected returns true if the serial port is open.
func (b *Bridge) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetPacketHandler sets the callback for incoming packets.
func (b *Bridge) SetPacketHandler(fn transport.PacketHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.packetHandler = fn
}

// SetStateHandler sets the callback for transport state changes.
func (b *Bridge) SetStateHandler(fn transport.StateHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateHandler = fn
}

// SendPacket encodes pkt, frames it, and writes it to the serial port.
func (b *Bridge) SendPacket(pkt *core.Packet) error {
	b.mu.RLock()
	port := b.port
	connected := b.connected
	b.mu.RUnlock()

	if !connected || port == nil {
		return errors.New("not connected")
	}

	data, err := wire.EncodePacket(pkt)
	if err != nil {
		return fmt.Errorf("encoding packet: %w", err)
	}
	if b.cfg.SharedSecret != nil {
		data, err = wire.Seal(*b.cfg.SharedSecret, data)
		if err != nil {
			return fmt.Errorf("sealing packet: %w", err)
		}
	}
	frame, err := wire.EncodeFrame(data)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	if _, err := port.Write(frame); err != nil {
		return fmt.Errorf("writing to serial port: %w", err)
	}

	return nil
}

// readLoop continuously reads from the serial port and assembles frames.
func (b *Bridge) readLoop(ctx context.Context) {
	defer close(b.done)

	buf := make([]byte, readBufSize)
	var assemblyBuf []byte

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := b.port.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				b.handleDisconnect(err)
				return
			}
			b.log.Error("serial read error", "error", err)
			b.handleDisconnect(err)
			return
		}

		if n == 0 {
			continue
		}

		assemblyBuf = append(assemblyBuf, buf[:n]...)
		assemblyBuf = b.processFrames(assemblyBuf)
	}
}

// processFrames extracts complete frames from data and dispatches the
// packets they carry, returning any bytes that don't yet form a frame.
func (b *Bridge) processFrames(data []byte) []byte {
	for len(data) >= wire.MinFrameSize {
		frame, remaining, err := wire.DecodeFrame(data)
		if err != nil {
			if errors.Is(err, wire.ErrIncompleteFrame) {
				return data
			}
			if idx := wire.FindMagic(data[1:]); idx >= 0 {
				data = data[1+idx:]
				continue
			}
			return nil
		}

		data = remaining

		payload := frame.Payload
		if b.cfg.SharedSecret != nil {
			var err error
			payload, err = wire.Open(*b.cfg.SharedSecret, payload)
			if err != nil {
				b.log.Debug("failed to open sealed frame", "error", err)
				continue
			}
		}

		pkt, err := wire.DecodePacket(payload)
		if err != nil {
			b.log.Debug("failed to parse packet from frame", "error", err)
			continue
		}

		b.mu.RLock()
		handler := b.packetHandler
		b.mu.RUnlock()

		if handler != nil {
			handler(pkt, transport.PacketSourceSerial)
		}
	}

	return data
}

func (b *Bridge) handleDisconnect(err error) {
	b.mu.Lock()
	b.connected = false
	handler := b.stateHandler
	b.mu.Unlock()

	if err != nil {
		b.log.Error("serial disconnected", "error", err)
	}

	if handler != nil {
		handler(b, transport.EventDisconnected)
	}
}
