// Package notify delivers best-effort notifications produced by the follow graph.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSubject = "notifications.email"

	followSubject = "A new user followed you"
)

// Message is an email request handed to the mailer.
type Message struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func FollowMessage(actor, recipient string) Message {
	return Message{
		Type:    "follow",
		To:      recipient,
		Subject: followSubject,
		Body:    fmt.Sprintf("%s just followed you", actor),
	}
}

type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// NATSNotifier publishes messages for the mailer service to pick up.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("profiles"),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", url, err)
	}

	return &NATSNotifier{conn: conn, subject: subject}, nil
}

func (n *NATSNotifier) Notify(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}

	return nil
}

func (n *NATSNotifier) Close() error {
	return n.conn.Drain()
}

// LogNotifier only logs; used when no message bus is configured.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n *LogNotifier) Notify(_ context.Context, m Message) error {
	n.Logger.WithFields(logrus.Fields{
		"type": m.Type,
		"to":   m.To,
		"from": m.From,
	}).Info(m.Body)

	return nil
}
