package mail

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var mailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "mail_messages_total", Help: "Outgoing mail by result"},
	[]string{"result"}, // sent | failed | dropped
)

func init() { prometheus.MustRegister(mailTotal) }

const sendTimeout = 30 * time.Second

// Dispatcher sends mail on a fixed pool of workers so requests never wait on
// SMTP. Delivery failures are logged and otherwise ignored.
type Dispatcher struct {
	sender Sender
	log    *zap.Logger
	queue  chan Message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(s Sender, l *zap.Logger, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sender: s,
		log:    l.Named("mail"),
		queue:  make(chan Message, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Enqueue hands m to the workers. It never blocks: when the queue is full
// or the dispatcher is closed the message is dropped and false returned.
func (d *Dispatcher) Enqueue(m Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		mailTotal.WithLabelValues("dropped").Inc()
		d.log.Warn("mail dropped, dispatcher closed", zap.String("to", m.To))
		return false
	}
	select {
	case d.queue <- m:
		return true
	default:
		mailTotal.WithLabelValues("dropped").Inc()
		d.log.Warn("mail dropped, queue full", zap.String("to", m.To), zap.String("subject", m.Subject))
		return false
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for m := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := d.sender.Send(ctx, m)
		cancel()
		if err != nil {
			mailTotal.WithLabelValues("failed").Inc()
			d.log.Error("mail send failed", zap.String("to", m.To), zap.String("subject", m.Subject), zap.Error(err))
			continue
		}
		mailTotal.WithLabelValues("sent").Inc()
		d.log.Debug("mail sent", zap.String("to", m.To), zap.String("subject", m.Subject))
	}
}

// Close stops accepting mail and waits for queued messages to be sent,
// or for ctx to expire.
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
