package messaging

import (
	"github.com/pixil98/go-waypoint/internal/game"
)

// Broker is the part of NatsServer the publisher needs.
type Broker interface {
	Publish(subject string, data []byte) error
}

// NatsPublisher publishes messages to individual player NATS channels.
type NatsPublisher struct {
	broker Broker
}

// NewNatsPublisher wraps a broker for per-player message delivery.
func NewNatsPublisher(b Broker) *NatsPublisher {
	return &NatsPublisher{broker: b}
}

// Publish sends data to a raw subject.
func (p *NatsPublisher) Publish(subject string, data []byte) error {
	return p.broker.Publish(subject, data)
}

// PublishToPlayer sends data to one player's session.
func (p *NatsPublisher) PublishToPlayer(uid string, data []byte) error {
	return p.broker.Publish(game.PlayerSubject(uid), data)
}

// Notify delivers a teleport notice to an online player.
func (p *NatsPublisher) Notify(uid, msg string) error {
	return p.PublishToPlayer(uid, []byte(msg))
}
