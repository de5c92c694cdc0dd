package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/rescuelink/telemetry-simulator/internal/logging"
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	// ConnectRetries bounds the initial connect attempts; reconnects after
	// that are handled by the paho client itself.
	ConnectRetries uint
}

// MQTTConfigFromEnv pulls broker settings from environment variables with
// defaults suitable for the public demo broker.
func MQTTConfigFromEnv() MQTTConfig {
	return MQTTConfig{
		BrokerURL:      getEnv("MQTT_BROKER", "tcp://broker.hivemq.com:1883"),
		ClientID:       os.Getenv("MQTT_CLIENT_ID"),
		Username:       os.Getenv("MQTT_USERNAME"),
		Password:       os.Getenv("MQTT_PASSWORD"),
		ConnectTimeout: 10 * time.Second,
		PublishTimeout: 5 * time.Second,
		ConnectRetries: 5,
	}
}

// MQTTPublisher is the Publisher over an MQTT broker.
type MQTTPublisher struct {
	client mqtt.Client
	cfg    MQTTConfig
	log    logging.Logger
}

// NewMQTTPublisher connects to the broker, retrying the initial connect with
// exponential backoff. A connect failure after all retries is fatal to the
// caller: without a bus there is nothing to simulate into.
func NewMQTTPublisher(ctx context.Context, cfg MQTTConfig, log logging.Logger, events ConnectionEvents) (*MQTTPublisher, error) {
	if log == nil {
		log = logging.Noop()
	}
	if events == nil {
		events = NoopEvents{}
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "rescuelink-sim-" + uuid.NewString()[:8]
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.ConnectRetries == 0 {
		cfg.ConnectRetries = 5
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info(context.Background(), "connected to broker",
			logging.String("broker", cfg.BrokerURL),
			logging.String("client_id", cfg.ClientID),
		)
		events.OnConnected()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn(context.Background(), "broker connection lost",
			logging.String("error", err.Error()),
		)
		events.OnDisconnected(err)
	})

	client := mqtt.NewClient(opts)

	connect := func() (struct{}, error) {
		token := client.Connect()
		if !token.WaitTimeout(cfg.ConnectTimeout) {
			return struct{}{}, errors.New("connect timed out")
		}
		return struct{}{}, token.Error()
	}
	if _, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(cfg.ConnectRetries),
	); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.BrokerURL, err)
	}

	return &MQTTPublisher{client: client, cfg: cfg, log: log}, nil
}

// Publish sends one message and waits, bounded, for the QoS handshake. QoS 0
// tokens complete immediately.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte, opts Options) error {
	timeout := p.cfg.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	token := p.client.Publish(topic, opts.QoS, opts.Retain, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight messages a short
// grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
