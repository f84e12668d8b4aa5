package mqtt

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/exepirit/loratext/internal/log"
	"github.com/exepirit/loratext/pkg/loratext"
)

const (
	DefaultRootTopic = "loratext"
	DefaultBuffer    = 64
)

var _ loratext.Radio = &Transport{}

// Transport emulates a shared radio channel on an MQTT broker. Every channel maps to one topic, so nodes
// hear each other only when they are tuned to the same frequency and sync word.
type Transport struct {
	// BrokerURL is the URL of the MQTT broker to connect to.
	BrokerURL string
	// Username is the username for MQTT authentication.
	Username string
	// Password is the password for MQTT authentication.
	Password string
	// AppName is a unique identifier for the application, used in the MQTT client ID.
	AppName string
	// RootTopic is the base topic for all channels.
	RootTopic string
	// Buffer is the capacity of the receive queue. Frames arriving while it is full are dropped.
	Buffer int
	Logger log.Logger

	mu         sync.Mutex
	client     mqtt.Client
	clientID   string
	topic      string
	messagesCh chan []byte
}

// Topic returns the topic carrying the channel described by settings.
func Topic(root string, settings loratext.RadioSettings) string {
	if root == "" {
		root = DefaultRootTopic
	}
	return fmt.Sprintf("%s/%d/%02x", strings.TrimSuffix(root, "/"), settings.Frequency, settings.SyncWord)
}

// Configure connects to the broker when needed and switches the subscription to the channel topic.
func (mt *Transport) Configure(_ context.Context, settings loratext.RadioSettings) error {
	if err := mt.Connect(); err != nil {
		return err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	topic := Topic(mt.RootTopic, settings)
	if mt.topic == topic {
		return nil
	}
	if mt.topic != "" {
		token := mt.client.Unsubscribe(mt.topic)
		<-token.Done()
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to leave topic: %w", err)
		}
	}

	token := mt.client.Subscribe(topic, 0, mt.handleMessage)
	<-token.Done()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}
	mt.topic = topic
	mt.logger().Info("Joined channel", "topic", topic)
	return nil
}

// Transmit publishes one frame to the channel topic. Frames carry the sender's client id so the
// transport can drop its own echoes.
func (mt *Transport) Transmit(ctx context.Context, data []byte) error {
	mt.mu.Lock()
	client, topic := mt.client, mt.topic
	mt.mu.Unlock()
	if client == nil || !client.IsConnected() || topic == "" {
		return ErrNotConnected
	}

	token := client.Publish(topic, 0, false, encodeEnvelope(mt.clientID, data))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		return token.Error()
	}
}

// Receive returns the next frame published by another node on the channel.
func (mt *Transport) Receive(ctx context.Context) ([]byte, error) {
	mt.mu.Lock()
	messages := mt.messagesCh
	mt.mu.Unlock()
	if messages == nil {
		return nil, ErrNotConnected
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-messages:
		if !ok {
			return nil, ErrNotConnected
		}
		return data, nil
	}
}

// Connect establishes an MQTT connection to the broker with a random client ID suffix.
func (mt *Transport) Connect() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.client != nil && mt.client.IsConnected() {
		return nil
	}

	randomId := make([]byte, 4)
	_, _ = rand.Read(randomId)
	appName := mt.AppName
	if appName == "" {
		appName = "loranode"
	}
	mt.clientID = fmt.Sprintf("%s-%x", appName, randomId)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(mt.BrokerURL)
	opts.SetUsername(mt.Username)
	opts.SetPassword(mt.Password)
	opts.SetClientID(mt.clientID)
	opts.SetOrderMatters(false)

	buffer := mt.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	mt.messagesCh = make(chan []byte, buffer)
	mt.topic = ""
	mt.client = mqtt.NewClient(opts)

	token := mt.client.Connect()
	<-token.Done()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect MQTT: %w", err)
	}
	return nil
}

// Disconnect closes the MQTT connection and the message channel.
func (mt *Transport) Disconnect() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.client != nil && mt.client.IsConnected() {
		mt.client.Disconnect(1000)
		close(mt.messagesCh)
		mt.messagesCh = nil
	}
}

// Close implements io.Closer.
func (mt *Transport) Close() error {
	mt.Disconnect()
	return nil
}

func (mt *Transport) handleMessage(_ mqtt.Client, message mqtt.Message) {
	sender, data, err := decodeEnvelope(message.Payload())
	if err != nil {
		mt.logger().Debug("Dropping message", "topic", message.Topic(), "error", err)
		return
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()
	if sender == mt.clientID || mt.messagesCh == nil {
		return
	}
	select {
	case mt.messagesCh <- data:
	default:
		mt.logger().Warn("Receive queue full, dropping frame", "topic", message.Topic())
	}
}

func (mt *Transport) logger() log.Logger {
	if mt.Logger == nil {
		return log.NOOPLogger{}
	}
	return mt.Logger
}
