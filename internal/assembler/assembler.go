package assembler

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/eventindex"
	"github.com/mrzor/auditdedup/internal/eventpool"
	"github.com/mrzor/auditdedup/internal/fingerprint"
	"github.com/mrzor/auditdedup/internal/metrics"
	"github.com/mrzor/auditdedup/internal/output"
)

// DefaultCapacity is the number of events that may be in flight at once.
const DefaultCapacity = 10000

// Options configures an Assembler.
type Options struct {
	Capacity int
	Logger   *zap.Logger
	Metrics  *metrics.Recorder
}

// Stats is a point-in-time view of slot usage.
type Stats struct {
	Live     int // events in the index
	Free     int // free pool slots
	Capacity int
}

// Assembler correlates fragments into events.
type Assembler struct {
	mu      sync.Mutex
	pool    *eventpool.Pool
	index   *eventindex.Index
	logger  *zap.Logger
	metrics *metrics.Recorder
	closed  bool
}

// New allocates the slot pool and an empty index.
func New(opts Options) (*Assembler, error) {
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	pool, err := eventpool.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("creating event pool: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("assembler initialized", zap.Int("capacity", capacity))

	return &Assembler{
		pool:    pool,
		index:   eventindex.New(),
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Process attaches frag to the event for its sequence number.
//
// It returns (nil, nil) while the event is incomplete and (ev, nil) once it
// completes. A completed event is no longer indexed; the caller must hand it
// back with Remove after consuming it. On error the assembler has already
// flushed anything it accumulated for the event, and the caller has nothing
// to clean up.
//
// sink is recorded when the event is created and receives the event's
// fragments if it is flushed.
func (a *Assembler) Process(frag *auditrec.Fragment, sink output.Sink) (*eventpool.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if frag == nil {
		return nil, &FragmentError{Err: fmt.Errorf("%w: nil fragment", auditrec.ErrMalformed)}
	}
	seq := frag.Seq()
	if !frag.Type.Tracked() {
		a.metrics.Rejected(metrics.ReasonMalformed)
		return nil, &FragmentError{Seq: seq, Type: frag.Type,
			Err: fmt.Errorf("%w: untracked record type", auditrec.ErrMalformed)}
	}
	a.metrics.Fragment(frag.Type.String())

	ev, found := a.index.Find(seq)
	if !found {
		var err error
		if ev, err = a.create(seq, sink); err != nil {
			a.metrics.Rejected(metrics.ReasonExhausted)
			a.logger.Warn("dropping fragment from assembly",
				zap.Uint64("seq", seq),
				zap.Stringer("type", frag.Type),
				zap.Error(err),
			)
			return nil, &FragmentError{Seq: seq, Type: frag.Type, Err: err}
		}
	}

	state := attach(ev, frag)
	a.logger.Debug("fragment attached",
		zap.Uint64("seq", seq),
		zap.Stringer("type", frag.Type),
		zap.Stringer("state", state),
	)

	switch state {
	case StateFailed:
		a.metrics.Rejected(metrics.ReasonDuplicate)
		a.logger.Warn("duplicate fragment, flushing event",
			zap.Uint64("seq", seq),
			zap.Stringer("type", frag.Type),
			zap.Int("fragments", ev.Len()),
		)
		flushErr := a.flush(ev, metrics.ReasonDuplicate)
		fragErr := &FragmentError{Seq: seq, Type: frag.Type, Err: ErrDuplicateFragment}
		if flushErr != nil {
			return nil, errors.Join(fragErr, flushErr)
		}
		return nil, fragErr

	case StateComplete:
		ev.SetDigest(fingerprint.Compute(ev))
		a.index.Delete(ev)
		a.metrics.Completed()
		items, _ := ev.Items()
		a.logger.Debug("event complete",
			zap.Uint64("seq", seq),
			zap.Int("items", items),
			zap.Stringer("digest", ev.Digest()),
		)
		return ev, nil

	default:
		return nil, nil
	}
}

// create acquires and indexes a slot for seq.
func (a *Assembler) create(seq uint64, sink output.Sink) (*eventpool.Event, error) {
	ev, ok := a.pool.Acquire()
	if !ok {
		return nil, ErrResourceExhausted
	}
	ev.Init(seq, sink)

	if err := a.index.Insert(ev); err != nil {
		a.pool.Release(ev)
		return nil, fmt.Errorf("indexing event: %w", err)
	}
	return ev, nil
}

// Remove returns a completed event's slot to the pool. A stale ref, or one
// already removed, is ignored and reported as false.
func (a *Assembler) Remove(ref eventpool.Ref) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	ev := a.pool.Lookup(ref)
	if ev == nil {
		return false
	}
	a.index.Delete(ev)
	return a.pool.Release(ev)
}

// Destroy flushes every live event in ascending sequence order and closes
// the assembler. It returns the sink errors met while flushing.
func (a *Assembler) Destroy() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	events := a.index.Events()
	a.logger.Info("draining incomplete events", zap.Int("live", len(events)))

	var errs []error
	for _, ev := range events {
		if err := a.flush(ev, metrics.ReasonDrain); err != nil {
			errs = append(errs, err)
		}
	}
	a.index.Clear()

	a.logger.Info("assembler destroyed",
		zap.Int("free", a.pool.Available()),
		zap.Int("capacity", a.pool.Capacity()),
	)
	return errors.Join(errs...)
}

// Stats reports current slot usage.
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Live:     a.index.Len(),
		Free:     a.pool.Available(),
		Capacity: a.pool.Capacity(),
	}
}
