package plan

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/samber/lo"
)

// MQTTClient manages the broker connection used for publishing.
type MQTTClient struct {
	client      mqtt.Client
	isConnected bool
	connected   chan struct{}
	once        sync.Once
	mu          sync.RWMutex
}

// InitMQTT creates a client from config and starts connecting in the
// background. Environment variables override the file:
// MQTT_BROKER, MQTT_CLIENT_ID, MQTT_USERNAME, MQTT_PASSWORD.
// When no broker is configured MQTT is disabled and nil is returned.
func InitMQTT(ctx context.Context, config *Config) *MQTTClient {
	var cfg MQTTConfig
	if config != nil {
		cfg = config.MQTT
	}

	broker := envOr("MQTT_BROKER", cfg.Broker)
	if broker == "" {
		log.Println("[MQTT] disabled: no broker configured")
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(envOr("MQTT_CLIENT_ID", lo.CoalesceOrEmpty(cfg.ClientID, DefaultPublishPrefix)))
	if username := envOr("MQTT_USERNAME", cfg.Username); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(envOr("MQTT_PASSWORD", cfg.Password))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	c := newMQTTClient(nil)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	c.client = mqtt.NewClient(opts)

	go c.connectWithRetry(ctx)
	return c
}

// envOr returns the environment variable key, or fallback when it is unset
// or empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newMQTTClient(client mqtt.Client) *MQTTClient {
	return &MQTTClient{client: client, connected: make(chan struct{})}
}

// connectWithRetry attempts to connect to the MQTT broker with exponential
// backoff until it succeeds or ctx is done.
func (c *MQTTClient) connectWithRetry(ctx context.Context) {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] connecting to broker")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] connected to broker")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] connect failed: %v", token.Error())
		} else {
			log.Println("[MQTT] connect timed out")
		}

		log.Printf("[MQTT] retrying in %v", retryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Println("[MQTT] connected")
	c.setConnected(true)
}

// onConnectionLost is called when the MQTT connection is lost
// Auto-reconnect is enabled, so this is typically a transient event
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

// WaitConnected blocks until the first successful connection or ctx is
// done. It reports whether the client is connected.
func (c *MQTTClient) WaitConnected(ctx context.Context) bool {
	select {
	case <-c.connected:
		return c.IsConnected()
	case <-ctx.Done():
		return false
	}
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	c.isConnected = connected
	c.mu.Unlock()
	if connected {
		c.once.Do(func() { close(c.connected) })
	}
}

// Disconnect closes the connection after a short quiesce period so queued
// publishes can drain.
func (c *MQTTClient) Disconnect() {
	if c.client == nil || !c.client.IsConnected() {
		return
	}
	log.Println("[MQTT] disconnecting")
	c.client.Disconnect(250)
	c.setConnected(false)
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}
