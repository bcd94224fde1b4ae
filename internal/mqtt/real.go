package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/control"
)

// backlogLimit is how many messages are queued while the broker is unreachable.
const backlogLimit = 100

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Prefix   string
}

// RealPublisher publishes to an actual MQTT broker and listens for commands.
// Messages published while disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client   paho.Client
	topics   Topics
	log      *zap.Logger
	commands chan control.Command

	mu            sync.Mutex
	backlog       *backlog
	everConnected bool
}

// NewRealPublisher creates a publisher for the given broker. Connection
// happens in the background with automatic retry; it never blocks startup.
func NewRealPublisher(opts Options, log *zap.Logger) *RealPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ClientID == "" {
		opts.ClientID = "appliance-timer"
	}
	p := &RealPublisher{
		topics:   TopicsFor(opts.Prefix),
		log:      log,
		commands: make(chan control.Command, 8),
		backlog:  newBacklog(backlogLimit, log),
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.topics.System, string(FormatWillPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(co)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.log.Info("mqtt connected", zap.String("command_topic", p.topics.Command))

	token := c.Subscribe(p.topics.Command, 1, p.onCommand)
	if !token.WaitTimeout(5 * time.Second) {
		p.log.Error("mqtt subscribe timeout", zap.String("topic", p.topics.Command))
	} else if err := token.Error(); err != nil {
		p.log.Error("mqtt subscribe failed", zap.String("topic", p.topics.Command), zap.Error(err))
	}

	p.mu.Lock()
	reconnected := p.everConnected
	p.everConnected = true
	pending := p.backlog.take()
	p.mu.Unlock()

	if reconnected {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		p.send(p.topics.System, 1, true, payload)
	}
	if len(pending) > 0 {
		p.log.Info("mqtt replaying queued messages", zap.Int("count", len(pending)))
	}
	for _, m := range pending {
		p.send(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.Warn("mqtt connection lost", zap.Error(err))
}

func (p *RealPublisher) onCommand(_ paho.Client, msg paho.Message) {
	cmd, err := control.ParseCommand(string(msg.Payload()))
	if err != nil {
		p.log.Warn("mqtt command rejected", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	select {
	case p.commands <- cmd:
	default:
		p.log.Warn("mqtt command dropped, control loop busy", zap.String("command", string(cmd)))
	}
}

// Commands returns the channel of commands received from the broker.
func (p *RealPublisher) Commands() <-chan control.Command {
	return p.commands
}

// Publish sends an output event to the MQTT broker.
func (p *RealPublisher) Publish(event control.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(p.topics.Events, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publish(p.topics.System, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.backlog.add(pendingMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	return p.send(topic, qos, retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns the number of messages queued for the next connection.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
