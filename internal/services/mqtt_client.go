package services

import (
	"fmt"
	"time"

	"bondbot-backend/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageHandler receives one inbound pub/sub message
type MessageHandler func(topic string, payload []byte)

// MQTTClient wraps the broker connection: it subscribes to the pair
// topic wildcard on every (re)connect and publishes replies.
type MQTTClient struct {
	client  mqtt.Client
	handler MessageHandler
}

// NewMQTTClient creates a new MQTT client. The handler is invoked for
// every message matching the subscription wildcard.
func NewMQTTClient(brokerURL, username, password, clientIDPrefix string, handler MessageHandler) *MQTTClient {
	c := &MQTTClient{handler: handler}

	clientID := fmt.Sprintf("%s-%s", clientIDPrefix, uuid.New().String()[:8])
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetUsername(username).
		SetPassword(password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false)

	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Str("client_id", clientID).Msg("MQTT connected")
		c.subscribe(client)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost, reconnecting")
	}

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect establishes the broker connection and blocks until the
// initial attempt resolves
func (c *MQTTClient) Connect() error {
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

// subscribe runs on every connect so the subscription survives broker
// reconnects
func (c *MQTTClient) subscribe(client mqtt.Client) {
	token := client.Subscribe(models.SubscriptionWildcard, 0, func(_ mqtt.Client, msg mqtt.Message) {
		c.handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("filter", models.SubscriptionWildcard).Msg("MQTT subscribe failed")
		return
	}
	log.Info().Str("filter", models.SubscriptionWildcard).Msg("Subscribed to pair topics")
}

// Publish sends one message on the given topic
func (c *MQTTClient) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Disconnect closes the broker connection
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}
