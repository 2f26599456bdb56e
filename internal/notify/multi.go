package notify

import (
	"context"
	"errors"
)

// MultiNotifier fans a notification out to every wrapped notifier. All
// notifiers are tried; their errors are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier wraps notifiers. Nil entries are skipped.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len returns the number of wrapped notifiers.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// NotifyScored sends s to every notifier.
func (m *MultiNotifier) NotifyScored(ctx context.Context, s *ScoredListing) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyScored(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyBatch sends items to every notifier.
func (m *MultiNotifier) NotifyBatch(ctx context.Context, items []ScoredListing) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyBatch(ctx, items); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
