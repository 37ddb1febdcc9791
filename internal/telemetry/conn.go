package telemetry

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MessageHandler receives one delivered broker message.
type MessageHandler func(topic string, payload []byte)

// ConnectionEvents are the transport callbacks a Connection must wire up
// before dialing. The client uses them to drive its state machine; the
// transport owns reconnect backoff timing.
type ConnectionEvents struct {
	OnConnect        func()
	OnConnectionLost func(err error)
	OnReconnecting   func()
}

// Connection is the slice of an MQTT session the telemetry client needs.
type Connection interface {
	// Connect dials the broker and blocks until the first CONNACK or a
	// connect-level failure.
	Connect() error

	// Subscribe registers for a topic at the given QoS and blocks until the
	// broker acknowledges the subscription.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Disconnect force-closes the session. quiesceMs bounds how long
	// in-flight work may drain; 0 closes immediately.
	Disconnect(quiesceMs uint)
}

// Connector dials a broker and returns a live Connection with the given
// event callbacks installed.
type Connector func(cfg Config, events ConnectionEvents) Connection

// NewPahoConnector returns the production Connector backed by paho.
// Auto-reconnect stays enabled; the client only bounds the attempt count.
func NewPahoConnector() Connector {
	return func(cfg Config, events ConnectionEvents) Connection {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.BrokerURL).
			SetClientID(fmt.Sprintf("%s-%s", cfg.ClientIDPrefix, uuid.NewString()[:8])).
			SetAutoReconnect(true).
			SetOnConnectHandler(func(mqtt.Client) {
				events.OnConnect()
			}).
			SetConnectionLostHandler(func(_ mqtt.Client, err error) {
				events.OnConnectionLost(err)
			}).
			SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
				events.OnReconnecting()
			})

		return &pahoConnection{client: mqtt.NewClient(opts)}
	}
}

type pahoConnection struct {
	client mqtt.Client
}

func (p *pahoConnection) Connect() error {
	token := p.client.Connect()
	token.Wait()
	return token.Error()
}

func (p *pahoConnection) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := p.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (p *pahoConnection) Disconnect(quiesceMs uint) {
	p.client.Disconnect(quiesceMs)
}
