// Package notify tells other running instances that the roadmap changed, so
// they can reload it from the shared store.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/alexanderramin/roadmap/internal/store"
)

// Message is the payload published after each persistent change.
type Message struct {
	Instance string    `json:"instance"`
	Revision uint64    `json:"revision"`
	Op       store.Op  `json:"op"`
	Items    int       `json:"items"`
	At       time.Time `json:"at"`
}

// conn is the subset of *nats.Conn used here.
type conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Close()
}

type Notifier struct {
	nc       conn
	subject  string
	instance string
	log      *slog.Logger
}

// Connect dials NATS. The wait is bounded by timeout.
func Connect(url, subject string, timeout time.Duration, log *slog.Logger) (*Notifier, error) {
	nc, err := nats.Connect(url, nats.Name("roadmap"), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("nats connected", "url", url, "subject", subject)
	return newNotifier(nc, subject, log), nil
}

func newNotifier(nc conn, subject string, log *slog.Logger) *Notifier {
	return &Notifier{nc: nc, subject: subject, instance: uuid.New().String(), log: log}
}

// OnChange publishes persistent changes. Publishing is best-effort: a
// failure is logged and never fails the command that caused it.
func (n *Notifier) OnChange(_ context.Context, ev store.ChangeEvent) error {
	if !ev.Persistent() {
		return nil
	}
	data, err := json.Marshal(Message{
		Instance: n.instance,
		Revision: ev.Revision,
		Op:       ev.Op,
		Items:    len(ev.Items),
		At:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode change message: %w", err)
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		n.log.Warn("publishing change failed", "subject", n.subject, "error", err)
	}
	return nil
}

// Subscribe calls handler for changes published by other instances. The
// returned func stops the subscription.
func (n *Notifier) Subscribe(handler func(Message)) (func(), error) {
	sub, err := n.nc.Subscribe(n.subject, func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			n.log.Warn("ignoring malformed change message", "error", err)
			return
		}
		if msg.Instance == n.instance {
			return
		}
		handler(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", n.subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (n *Notifier) Close() {
	n.nc.Close()
}
