// Serial request pipeline between the UI and the filter engine
package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"photo-filters/internal/algorithms"
)

// DefaultQueueSize is the number of filter requests that may wait behind the
// one being processed.
const DefaultQueueSize = 8

// Applier is the engine contract the pipeline depends on.
type Applier interface {
	Apply(sourcePath string, filter algorithms.Filter) Result
}

// Request is one queued filter application
type Request struct {
	ID        string
	Filter    algorithms.Filter
	Submitted time.Time
}

// Update is delivered to the UI after every request
type Update struct {
	RequestID string
	Filter    algorithms.Filter
	Result    Result
	Session   SessionSnapshot
	Stale     bool
	Err       error
}

// Pipeline runs filter requests one at a time, so chained applications always
// see the previous request's output.
type Pipeline struct {
	mu         sync.RWMutex
	runMu      sync.Mutex
	engine     Applier
	session    *Session
	logger     *logrus.Logger
	requests   chan Request
	stop       chan struct{}
	done       chan struct{}
	started    bool
	closed     bool
	processing bool
	stats      *PipelineStats

	onResult func(Update)
}

func NewPipeline(engine Applier, session *Session, logger *logrus.Logger, queueSize int) *Pipeline {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Pipeline{
		engine:   engine,
		session:  session,
		logger:   logger,
		requests: make(chan Request, queueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		stats:    NewPipelineStats(),
	}
}

// SetCallbacks sets the result callback. It runs on the worker goroutine;
// UI code must hop back to its own thread.
func (p *Pipeline) SetCallbacks(onResult func(Update)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onResult = onResult
}

// Start launches the worker. It returns immediately; the worker exits when
// ctx is cancelled or Stop is called.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.logger.WithField("queue_size", cap(p.requests)).Info("PIPELINE: Worker started")
	go p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)
	defer p.drain()
	defer p.markClosed()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("PIPELINE: Context cancelled")
			return
		case <-p.stop:
			p.logger.Debug("PIPELINE: Stop requested")
			return
		case req := <-p.requests:
			p.process(req)
		}
	}
}

// drain drops whatever is still queued once the worker exits.
func (p *Pipeline) drain() {
	for {
		select {
		case req := <-p.requests:
			p.logger.WithFields(logrus.Fields{
				"request_id": req.ID,
				"filter":     req.Filter,
			}).Warn("PIPELINE: Dropping queued request")
		default:
			return
		}
	}
}

// Submit queues filter and returns the request ID.
func (p *Pipeline) Submit(filter algorithms.Filter) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return "", ErrPipelineClosed
	}
	if !p.session.HasImage() {
		return "", ErrNoImage
	}

	req := Request{
		ID:        uuid.NewString(),
		Filter:    filter,
		Submitted: time.Now(),
	}

	select {
	case p.requests <- req:
		p.logger.WithFields(logrus.Fields{
			"request_id": req.ID,
			"filter":     filter,
			"pending":    len(p.requests),
		}).Debug("PIPELINE: Request queued")
		return req.ID, nil
	default:
		p.logger.WithField("filter", filter).Warn("PIPELINE: Queue full, request rejected")
		p.stats.Record(filter, OutcomeRejected, 0, ErrQueueFull)
		return "", ErrQueueFull
	}
}

// ApplyNow processes filter on the calling goroutine, serialised with the
// worker, and returns the update without invoking the callback.
func (p *Pipeline) ApplyNow(filter algorithms.Filter) Update {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		return Update{Filter: filter, Err: ErrPipelineClosed, Session: p.session.Snapshot()}
	}

	return p.execute(Request{
		ID:        uuid.NewString(),
		Filter:    filter,
		Submitted: time.Now(),
	})
}

func (p *Pipeline) process(req Request) {
	update := p.execute(req)

	p.mu.RLock()
	callback := p.onResult
	p.mu.RUnlock()

	if callback != nil {
		callback(update)
	} else {
		p.logger.Warn("PIPELINE: No result callback set")
	}
}

func (p *Pipeline) execute(req Request) Update {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.setProcessing(true)
	defer p.setProcessing(false)

	log := p.logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"filter":     req.Filter,
		"waited":     time.Since(req.Submitted),
	})

	update := Update{RequestID: req.ID, Filter: req.Filter}
	started := time.Now()

	source, generation, err := p.session.SourceFor(req.Filter)
	if err != nil {
		log.WithError(err).Warn("PIPELINE: No source image for request")
		p.stats.Record(req.Filter, OutcomeFailed, 0, err)
		update.Err = err
		update.Session = p.session.Snapshot()
		return update
	}

	result := p.engine.Apply(source, req.Filter)
	update.Result = result
	update.Err = result.Err

	if result.Err == nil {
		if err := p.session.Record(generation, req.Filter, result); err != nil {
			update.Stale = errors.Is(err, ErrStale)
			update.Err = err
			log.WithError(err).Info("PIPELINE: Result discarded")
		}
	}

	p.stats.Record(req.Filter, outcomeOf(update), time.Since(started), update.Err)

	update.Session = p.session.Snapshot()
	log.WithFields(logrus.Fields{
		"output":  result.Path,
		"changed": result.Changed(),
		"stale":   update.Stale,
	}).Debug("PIPELINE: Request completed")

	return update
}

// Stop rejects further submissions, drops queued requests and waits for the
// in-flight one to finish.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.started
	close(p.stop)
	p.mu.Unlock()

	p.logger.Debug("PIPELINE: Stopping")
	if started {
		<-p.done
	} else {
		p.drain()
	}
	p.stats.LogSummary(p.logger)
}

func outcomeOf(update Update) Outcome {
	switch {
	case update.Stale:
		return OutcomeStale
	case update.Err != nil:
		return OutcomeFailed
	default:
		return OutcomeApplied
	}
}

func (p *Pipeline) markClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Pipeline) setProcessing(processing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processing = processing
}

// IsProcessing returns current processing state
func (p *Pipeline) IsProcessing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processing
}

// Stats exposes request counters and timings
func (p *Pipeline) Stats() *PipelineStats {
	return p.stats
}

// Pending returns the number of queued requests
func (p *Pipeline) Pending() int {
	return len(p.requests)
}
