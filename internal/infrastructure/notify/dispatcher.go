// Package notify delivers loan transition events to a NotificationSink on a
// fixed pool of workers. It is the hook point for downstream consumers; no
// delivery guarantee is made beyond best effort within the process.
package notify

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/librarium/loan-service/internal/api/metrics"
	"github.com/librarium/loan-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes loan events to a fixed set of workers using consistent
// hashing on the loan id, guaranteeing per-loan event ordering.
type Dispatcher struct {
	workers []chan ports.LoanEvent
	sink    ports.NotificationSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.NotificationSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.LoanEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.LoanEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// LoanStatusChanged enqueues an event for the worker responsible for its
// loan. A full worker channel drops the event rather than blocking a
// transition; notifications are a hook, not a ledger.
func (d *Dispatcher) LoanStatusChanged(_ context.Context, event ports.LoanEvent) {
	idx := d.shardIndex(event.LoanID)
	select {
	case d.workers[idx] <- event:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().Str("loan_id", event.LoanID).Msg("notification dropped, worker queue full")
	}
}

// shardIndex maps a loan id deterministically to a worker index.
func (d *Dispatcher) shardIndex(loanID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(loanID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.LoanEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.sink.LoanStatusChanged(ctx, event)
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}

// LogSink is the default NotificationSink: it records each transition in the
// structured log.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) LoanStatusChanged(_ context.Context, event ports.LoanEvent) {
	s.log.Info().
		Str("loan_id", event.LoanID).
		Str("member_id", event.MemberID).
		Str("book_id", event.BookID).
		Str("previous", string(event.Previous)).
		Str("new", string(event.New)).
		Str("actor_id", event.ActorID).
		Msg("loan event")
}
