package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crashsense-ai/crashsense/internal/verdict"
)

// Status describes what happened to the alert for one request.
type Status string

const (
	// StatusNotAttempted means the verdict did not pass the severity gate.
	StatusNotAttempted Status = "not_attempted"
	// StatusAttempted means the send was queued; the result is observed
	// asynchronously and only for logging.
	StatusAttempted Status = "attempted"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
)

// Outcome is kept only for the response and log of the request that
// produced it. It is never persisted.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Metrics holds delivery counters for the dispatcher.
type Metrics struct {
	Enqueued uint64 `json:"enqueued"`
	Dropped  uint64 `json:"dropped"`
	Sent     uint64 `json:"sent"`
	Failed   uint64 `json:"failed"`
}

// Config sizes the dispatcher.
type Config struct {
	// Destination is the single fixed emergency contact.
	Destination string
	// Async hands sends to background workers; when false the single
	// attempt runs inline (errors are still swallowed).
	Async           bool
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// Dispatcher gates alert sends on the verdict and performs them best-effort.
// A delivery failure never changes the classification response.
type Dispatcher struct {
	gateway Gateway
	cfg     Config
	logger  *zap.Logger

	queue chan Message
	wg    sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	metrics Metrics
}

// NewDispatcher starts the dispatcher. In async mode it spins up the
// configured worker goroutines immediately.
func NewDispatcher(gateway Gateway, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 2 * time.Second
	}

	d := &Dispatcher{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
	if cfg.Async {
		d.queue = make(chan Message, cfg.QueueSize)
		for i := 0; i < cfg.Workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	}
	return d
}

// ShouldNotify is the severity gate: only a confirmed accident at MEDIUM or
// above triggers a send. LOW never does, regardless of the accident flag, as
// a deliberate guard against alert fatigue.
func ShouldNotify(v verdict.Verdict) bool {
	return v.IsAccident && v.Severity.AtLeast(verdict.SeverityMedium)
}

// MaybeNotify applies the gate and, when it passes, makes exactly one send
// attempt for this request. It never returns an error.
func (d *Dispatcher) MaybeNotify(ctx context.Context, v verdict.Verdict, location string) Outcome {
	if !ShouldNotify(v) {
		return Outcome{Status: StatusNotAttempted}
	}

	msg := Message{
		ID:   uuid.NewString(),
		To:   d.cfg.Destination,
		Body: buildBody(v, location),
	}

	if !d.cfg.Async {
		if err := d.send(msg); err != nil {
			return Outcome{Status: StatusFailed, Reason: err.Error()}
		}
		return Outcome{Status: StatusSent}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.metrics.Dropped++
		return Outcome{Status: StatusFailed, Reason: "dispatcher closed"}
	}
	select {
	case d.queue <- msg:
		d.metrics.Enqueued++
		return Outcome{Status: StatusAttempted}
	default:
		d.metrics.Dropped++
		d.logger.Warn("alert queue full, dropping notification", zap.String("message_id", msg.ID))
		return Outcome{Status: StatusFailed, Reason: "alert queue full"}
	}
}

// Snapshot copies the current delivery counters.
func (d *Dispatcher) Snapshot() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metrics
}

// Close stops accepting alerts and waits briefly for in-flight deliveries.
func (d *Dispatcher) Close(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.queue != nil {
		close(d.queue)
	}
	d.mu.Unlock()

	if d.queue == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		// Worker lifetime, not request lifetime, bounds the delivery: the
		// request that queued the message may already be gone.
		if err := d.send(msg); err != nil {
			continue
		}
	}
}

func (d *Dispatcher) send(msg Message) error {
	err := d.gateway.Send(context.Background(), msg)

	d.mu.Lock()
	if err != nil {
		d.metrics.Failed++
	} else {
		d.metrics.Sent++
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("alert delivery failed",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}
	d.logger.Info("alert delivered", zap.String("message_id", msg.ID))
	return nil
}

func buildBody(v verdict.Verdict, location string) string {
	return fmt.Sprintf("%s accident reported near %s: %s (recommended: %s)",
		v.Severity, location, v.Summary, v.Action)
}
