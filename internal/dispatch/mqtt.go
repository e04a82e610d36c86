package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of mqtt.Client used for alerts.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type mqttEvent struct {
	AlertID  string    `json:"alert_id"`
	At       time.Time `json:"at"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Emails   []string  `json:"emails,omitempty"`
	Phones   []string  `json:"phones,omitempty"`
	Contacts int       `json:"contacts"`
}

// MQTTComposer publishes the alert as a JSON event, for home automation or
// monitoring to pick up. It counts as one recipient.
type MQTTComposer struct {
	pub   Publisher
	topic string
}

func NewMQTTComposer(pub Publisher, topic string) *MQTTComposer {
	return &MQTTComposer{pub: pub, topic: topic}
}

// DialMQTT connects a paho client to broker.
func DialMQTT(broker, clientID, username, password string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(timeout)
	opts.SetAutoReconnect(true)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return client, nil
}

func (m *MQTTComposer) Channel() string { return "mqtt" }

func (m *MQTTComposer) Send(ctx context.Context, a Alert) (int, error) {
	payload, err := json.Marshal(mqttEvent{
		AlertID:  a.ID,
		At:       a.At.UTC(),
		Subject:  a.Message.Subject,
		Body:     a.Message.Body,
		Emails:   Emails(a.Contacts),
		Phones:   Phones(a.Contacts),
		Contacts: len(a.Contacts),
	})
	if err != nil {
		return 0, err
	}

	token := m.pub.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if err := token.Error(); err != nil {
		return 0, fmt.Errorf("mqtt publish %s: %w", m.topic, err)
	}
	return 1, nil
}
