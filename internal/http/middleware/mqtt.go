package middleware

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// LayoutNotifier tells a paired TV that the overlays of its screen changed.
type LayoutNotifier interface {
	NotifyOverlaysUpdated(deviceID string, screenID int) error
}

// OverlaysUpdatedMessage is published on tv/<device_id>/commands.
type OverlaysUpdatedMessage struct {
	Type      string `json:"type"`
	ScreenID  int    `json:"screen_id"`
	Timestamp int64  `json:"timestamp"`
}

func CommandTopic(deviceID string) string {
	return fmt.Sprintf("tv/%s/commands", deviceID)
}

// MQTTNotifier publishes layout changes through one shared broker client.
type MQTTNotifier struct {
	client mqtt.Client
}

// MQTT connection handler
var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

// MQTT connection lost handler
var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewMQTTNotifier connects to brokerURL (for example "tcp://localhost:1883").
func NewMQTTNotifier(brokerURL, clientID string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return NewMQTTNotifierFromClient(client), nil
}

func NewMQTTNotifierFromClient(client mqtt.Client) *MQTTNotifier {
	return &MQTTNotifier{client: client}
}

func (n *MQTTNotifier) NotifyOverlaysUpdated(deviceID string, screenID int) error {
	payload, err := json.Marshal(OverlaysUpdatedMessage{
		Type:      "overlays_updated",
		ScreenID:  screenID,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	topic := CommandTopic(deviceID)
	token := n.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to send message to TV device %s: %w", deviceID, err)
	}
	log.Debug().Str("device_id", deviceID).Int("screen_id", screenID).Msg("layout change sent via MQTT")
	return nil
}

func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOverlaysUpdated(string, int) error { return nil }
