package report

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/dietemp/pkg/config"
	"github.com/itohio/dietemp/pkg/monitor"
	"github.com/itohio/dietemp/pkg/sample"
)

var _ monitor.Sink = (*MQTT)(nil)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 10 * time.Second
)

// Publisher is the part of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes every reading as JSON with QoS 1.
type MQTT struct {
	client Publisher
	topic  string
}

// NewMQTT creates a sink publishing to topic.
func NewMQTT(client Publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

// ConnectMQTT connects to the broker described by cfg.
func ConnectMQTT(cfg config.MQTTConfig, username, password string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Printf("Connected to MQTT broker %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect timed out after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

func (m *MQTT) Report(r sample.Reading) {
	b, err := json.Marshal(NewPayload(r))
	if err != nil {
		log.Printf("Failed to encode reading: %v", err)
		return
	}

	token := m.client.Publish(m.topic, 1, false, b)
	go m.wait(token)
}

func (m *MQTT) wait(token mqtt.Token) {
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("MQTT publish to %s timed out after %v", m.topic, publishTimeout)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("Failed to publish to %s: %v", m.topic, err)
	}
}
