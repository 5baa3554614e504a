package eventprocessor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrzor/auditdedup/internal/assembler"
	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/eventpool"
	"github.com/mrzor/auditdedup/internal/filter"
	"github.com/mrzor/auditdedup/internal/metrics"
	"github.com/mrzor/auditdedup/internal/output"
	"github.com/mrzor/auditdedup/internal/sieve"
)

// Processor coordinates record processing.
type Processor struct {
	assembler *assembler.Assembler
	sieve     *sieve.Sieve
	bypass    *filter.Bypass
	sink      output.Sink
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

// NewProcessor creates a new record processor. bypass and rec may be nil.
func NewProcessor(
	asm *assembler.Assembler,
	sv *sieve.Sieve,
	bypass *filter.Bypass,
	sink output.Sink,
	logger *zap.Logger,
	rec *metrics.Recorder,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		assembler: asm,
		sieve:     sv,
		bypass:    bypass,
		sink:      sink,
		logger:    logger,
		metrics:   rec,
	}
}

// HandleLine processes one raw audit record. Only sink failures and use
// after Close are returned; record-level problems are logged and the record
// is passed through.
func (p *Processor) HandleLine(line []byte) error {
	frag, err := auditrec.ParseLine(line)
	if err != nil {
		p.metrics.Rejected(metrics.ReasonMalformed)
		p.logger.Warn("passing through malformed record", zap.Error(err))
		return p.sink.WriteLine(line)
	}

	if !frag.Type.Tracked() {
		return p.sink.WriteLine(frag.Payload)
	}

	ev, err := p.assembler.Process(frag, p.sink)
	switch {
	case err == nil:
	case errors.Is(err, assembler.ErrClosed):
		return errors.Join(err, p.sink.WriteLine(frag.Payload))
	case errors.Is(err, assembler.ErrResourceExhausted), errors.Is(err, assembler.ErrDuplicateFragment):
		// The assembler flushed what it held; the rejected fragment is ours to deliver.
		p.logger.Warn("passing through unassembled record", zap.Error(err))
		if writeErr := p.sink.WriteLine(frag.Payload); writeErr != nil {
			return errors.Join(err, writeErr)
		}
		var fragErr *assembler.FragmentError
		if errors.As(err, &fragErr) && err == error(fragErr) {
			return nil
		}
		// The flush itself failed to write.
		return err
	default:
		return err
	}

	if ev == nil {
		return nil
	}
	return p.handleComplete(ev)
}

// handleComplete writes or suppresses a completed event, then returns its slot.
func (p *Processor) handleComplete(ev *eventpool.Event) error {
	defer p.assembler.Remove(ev.Ref())

	bypass, err := p.bypass.Match(ev)
	if err != nil {
		p.logger.Warn("bypass expression failed", zap.Uint64("seq", ev.Seq()), zap.Error(err))
	}

	if !bypass && p.sieve.Seen(ev.Digest()) {
		p.metrics.Suppressed()
		p.logger.Debug("suppressed duplicate event",
			zap.Uint64("seq", ev.Seq()),
			zap.Stringer("digest", ev.Digest()),
		)
		return nil
	}

	sink := ev.Sink()
	var errs []error
	ev.Each(func(k auditrec.Kind, f *auditrec.Fragment) {
		if err := sink.WriteLine(f.Payload); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %s fragment: %w", ev.Seq(), k, err))
		}
	})
	return errors.Join(errs...)
}

// Close drains the assembler, flushing every incomplete event.
func (p *Processor) Close() error {
	stats := p.assembler.Stats()
	p.logger.Info("closing processor",
		zap.Int("live", stats.Live),
		zap.Int("remembered", p.sieve.Len()),
	)
	return p.assembler.Destroy()
}
