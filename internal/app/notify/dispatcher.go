package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	From      string
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Dispatcher delivers messages on its own goroutines. Delivery errors are
// logged and reported to the result hook, never to the caller of Dispatch.
type Dispatcher struct {
	notifier Notifier
	logger   logrus.FieldLogger
	config   Config
	onResult func(error)

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

func NewDispatcher(n Notifier, logger logrus.FieldLogger, config Config) *Dispatcher {
	config.withDefaults()

	d := &Dispatcher{
		notifier: n,
		logger:   logger,
		config:   config,
		onResult: func(error) {},
		queue:    make(chan Message, config.QueueSize),
	}

	d.wg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go d.work()
	}

	return d
}

// OnResult registers a hook called after every delivery attempt.
// It must be set before the first Dispatch.
func (d *Dispatcher) OnResult(fn func(error)) {
	d.onResult = fn
}

// Dispatch enqueues m without blocking. It reports false when the message was dropped.
func (d *Dispatcher) Dispatch(m Message) bool {
	if m.From == "" {
		m.From = d.config.From
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WithField("to", m.To).Warn("notification dropped: dispatcher closed")
		return false
	}

	select {
	case d.queue <- m:
		return true
	default:
		d.logger.WithField("to", m.To).Warn("notification dropped: queue full")
		return false
	}
}

// Close stops accepting messages and waits for queued ones until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	err := d.notifier.Notify(ctx, m)
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"to":   m.To,
			"type": m.Type,
		}).Errorf("notification failed: %v", err)
	}

	d.onResult(err)
}
