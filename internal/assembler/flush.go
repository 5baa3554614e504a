package assembler

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/eventpool"
)

// flush forwards the event's fragments to its sink in canonical order,
// unindexes it and releases its slot. It never computes a digest.
//
// Every fragment is attempted even if an earlier write fails.
func (a *Assembler) flush(ev *eventpool.Event, reason string) error {
	seq := ev.Seq()
	sink := ev.Sink()

	var errs []error
	for _, k := range auditrec.CanonicalKinds {
		frag := ev.TakeFragment(k)
		if frag == nil {
			continue
		}
		if sink == nil {
			errs = append(errs, fmt.Errorf("event %d: no sink for %s fragment", seq, k))
			continue
		}
		if err := sink.WriteLine(frag.Payload); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %s fragment: %w", seq, k, err))
		}
	}

	a.index.Delete(ev)
	a.pool.Release(ev)
	a.metrics.Flushed(reason)

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("flushing event", zap.Uint64("seq", seq), zap.String("reason", reason), zap.Error(err))
	}
	return err
}
