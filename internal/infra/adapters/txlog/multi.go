package txlog

import (
	"context"

	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
)

var _ adapter.TransactionRecorder = (*MultiRecorder)(nil)

// MultiRecorder fans one event out to every configured sink. It reports true
// when at least one sink accepted the event; individual sink failures do not
// short-circuit the rest.
type MultiRecorder struct {
	sinks []adapter.TransactionRecorder
}

func NewMultiRecorder(sinks ...adapter.TransactionRecorder) *MultiRecorder {
	return &MultiRecorder{sinks: sinks}
}

func (m *MultiRecorder) Record(ctx context.Context, ev model.TransactionEvent) (bool, error) {
	var anyOK bool
	var lastErr error
	for _, s := range m.sinks {
		ok, err := s.Record(ctx, ev)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			anyOK = true
		}
	}
	if anyOK {
		return true, nil
	}
	return false, lastErr
}
