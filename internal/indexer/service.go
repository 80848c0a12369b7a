package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/Nish0483/NFT-market/libs/log"
)

// DefaultQueueSize is the number of blocks the service buffers before
// Publish blocks.
const DefaultQueueSize = 64

// ErrStopped is returned by Publish once Run has returned.
var ErrStopped = errors.New("indexer service stopped")

// Service indexes committed batches into every configured sink. Batches are
// indexed in the order they are published, off the commit path.
type Service struct {
	sinks   []EventSink
	metrics *Metrics
	logger  log.Logger
	queue   chan Batch
	done    chan struct{}
}

// ServiceArgs are arguments for constructing a new indexer service.
type ServiceArgs struct {
	Sinks     []EventSink
	Metrics   *Metrics
	Logger    log.Logger
	QueueSize int
}

// NewService constructs a new indexer service from the given arguments.
func NewService(args ServiceArgs) *Service {
	is := &Service{
		sinks:   args.Sinks,
		metrics: args.Metrics,
		logger:  args.Logger,
	}
	if is.metrics == nil {
		is.metrics = NopMetrics()
	}
	if is.logger == nil {
		is.logger = log.NewNopLogger()
	}
	size := args.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	is.queue = make(chan Batch, size)
	is.done = make(chan struct{})
	return is
}

// Sinks returns the sinks of the service.
func (is *Service) Sinks() []EventSink { return is.sinks }

// Publish queues b for indexing. It blocks while the queue is full, until
// ctx ends or the service stops.
func (is *Service) Publish(ctx context.Context, b Batch) error {
	if !IndexingEnabled(is.sinks) || len(b.Records) == 0 {
		return nil
	}
	select {
	case <-is.done:
		return ErrStopped
	default:
	}
	select {
	case is.queue <- b:
		return nil
	case <-is.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run indexes queued batches until ctx ends, then indexes what is still
// queued and stops every sink. Run must be called at most once.
func (is *Service) Run(ctx context.Context) error {
	defer close(is.done)
	defer is.stopSinks()
	for {
		select {
		case b := <-is.queue:
			is.index(ctx, b)
		case <-ctx.Done():
			is.drain()
			return nil
		}
	}
}

func (is *Service) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		select {
		case b := <-is.queue:
			is.index(ctx, b)
		default:
			return
		}
	}
}

func (is *Service) index(ctx context.Context, b Batch) {
	for _, sink := range is.sinks {
		if sink.Type() == NULL {
			continue
		}
		start := time.Now()
		if err := sink.IndexBatch(ctx, b); err != nil {
			is.metrics.Failures.With("sink", string(sink.Type())).Add(1)
			is.logger.Error("failed to index block", "height", b.Height, "sink", sink.Type(), "err", err)
			continue
		}
		is.metrics.BatchSeconds.With("sink", string(sink.Type())).Observe(time.Since(start).Seconds())
		is.logger.Debug("indexed block", "height", b.Height, "events", len(b.Records), "sink", sink.Type())
	}
	is.metrics.BatchesIndexed.Add(1)
	is.metrics.EventsIndexed.Add(float64(len(b.Records)))
}

func (is *Service) stopSinks() {
	for _, sink := range is.sinks {
		if err := sink.Stop(); err != nil {
			is.logger.Error("failed to close eventsink", "eventsink", sink.Type(), "err", err)
		}
	}
}
