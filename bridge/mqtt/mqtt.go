// Package mqtt bridges a drone's neighbor channel onto an MQTT broker.
// Packets are transmitted as base64-encoded wire frames over a topic of
// the form "{prefix}/{meshID}", so any standard broker works: no
// MeshCore-specific broker features are assumed.
package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/dronemesh/flypath/core"
	"github.com/dronemesh/flypath/identity"
	"github.com/dronemesh/flypath/transport"
	"github.com/dronemesh/flypath/wire"
)

var _ transport.Transport = (*Bridge)(nil)

const DefaultTopicPrefix = "flypath"

// Config holds the configuration for an MQTT bridge.
type Config struct {
	// Broker is the MQTT broker URL (e.g., "tcp://broker.example.com:1883").
	Broker string
	// Username for MQTT authentication. Leave empty if not required.
	Username string
	// Password for MQTT authentication. Leave empty if not required.
	Password string
	// UseTLS enables TLS for the MQTT connection.
	UseTLS bool
	// ClientID is the MQTT client identifier. If empty, a random one is generated.
	ClientID string
	// TopicPrefix is the MQTT topic prefix (default: "flypath").
	TopicPrefix string
	// MeshID identifies the overlay this bridge carries traffic for. The
	// bridge subscribes to "{TopicPrefix}/{MeshID}" and publishes to the
	// same topic.
	MeshID string
	// SharedSecret, if set, encrypts every published payload and decrypts
	// every received one. A broker is not a trusted part of the overlay,
	// unlike an in-process neighbor channel.
	SharedSecret *identity.SharedSecret
	// Logger is the logger to use. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Bridge implements transport.Transport over MQTT.
type Bridge struct {
	cfg           Config
	client        paho.Client
	log           *slog.Logger
	mu            sync.RWMutex
	connected     bool
	packetHandler transport.PacketHandler
	stateHandler  transport.StateHandler
}

// New creates a new MQTT bridge with the given configuration.
func New(cfg Config) *Bridge {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Bridge{
		cfg: cfg,
		log: cfg.Logger.WithGroup("bridge.mqtt"),
	}
}

// Start connects to the MQTT broker and begins listening for packets.
func (b *Bridge) Start(ctx context.Context) error {
	if b.cfg.Broker == "" {
		return errors.New("broker URL is required")
	}
	if b.cfg.MeshID == "" {
		return errors.New("mesh ID is required")
	}

	clientID := b.cfg.ClientID
	if clientID == "" {
		clientID = "flypath-" + randomString(16)
	}

	opts := paho.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(2 * time.Minute).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetCleanSession(true).
		SetOrderMatters(false).
		SetOnConnectHandler(b.onConnected).
		SetConnectionLostHandler(b.onConnectionLost).
		SetReconnectingHandler(b.onReconnecting)

	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
	}
	if b.cfg.Password != "" {
		opts.SetPassword(b.cfg.Password)
	}
	if b.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
	}

	b.client = paho.NewClient(opts)

	token := b.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return errors.New("connection timeout")
	}
	if token.Error() != nil {
		return fmt.Errorf("connecting to broker: %w", token.Error())
	}

	return nil
}

// Stop gracefully disconnects from the MQTT broker.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		b.client.Disconnect(1000)
		b.connected = false
	}
	return nil
}

// IsConnected returns true if the bridge is connected to the broker.
func (b *Bridge) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected && b.client != nil && b.client.IsConnected()
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

// SendPacket encodes pkt and publishes it to the mesh topic.
func (b *Bridge) SendPacket(pkt *core.Packet) error {
	if !b.IsConnected() {
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
	payload := base64.StdEncoding.EncodeToString(data)

	token := b.client.Publish(b.topic(), 0, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("timeout publishing to MQTT")
	}
	return token.Error()
}

func (b *Bridge) topic() string {
	return b.cfg.TopicPrefix + "/" + b.cfg.MeshID
}

func (b *Bridge) subscribe() {
	topic := b.topic()
	b.client.Subscribe(topic, 0, b.handleMessage)
	b.log.Debug("subscribed to mesh topic", "topic", topic)
}

func (b *Bridge) handleMessage(_ paho.Client, message paho.Message) {
	b.mu.RLock()
	handler := b.packetHandler
	b.mu.RUnlock()

	if handler == nil {
		return
	}

	rawData, err := base64.StdEncoding.DecodeString(string(message.Payload()))
	if err != nil {
		b.log.Debug("failed to decode base64 payload", "error", err)
		return
	}
	if b.cfg.SharedSecret != nil {
		rawData, err = wire.Open(*b.cfg.SharedSecret, rawData)
		if err != nil {
			b.log.Debug("failed to open sealed payload", "error", err)
			return
		}
	}

	pkt, err := wire.DecodePacket(rawData)
	if err != nil {
		b.log.Debug("failed to parse packet", "error", err)
		return
	}

	handler(pkt, transport.PacketSourceMQTT)
}

func (b *Bridge) onConnected(_ paho.Client) {
	b.mu.Lock()
	b.connected = true
	handler := b.stateHandler
	b.mu.Unlock()

	b.subscribe()
	b.log.Info("connected to MQTT broker", "broker", b.cfg.Broker)

	if handler != nil {
		handler(b, transport.EventConnected)
	}
}

func (b *Bridge) onConnectionLost(_ paho.Client, err error) {
	b.mu.Lock()
	b.connected = false
	handler := b.stateHandler
	b.mu.Unlock()

	b.log.Error("MQTT connection lost", "error", err)

	if handler != nil {
		handler(b, transport.EventDisconnected)
	}
}

func (b *Bridge) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	b.mu.RLock()
	handler := b.stateHandler
	b.mu.RUnlock()

	b.log.Info("reconnecting to MQTT broker")

	if handler != nil {
		handler(b, transport.EventReconnecting)
	}
}

func randomString(n int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
