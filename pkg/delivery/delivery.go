// Package delivery hands finished report artifacts to their destinations.
//
// Delivery happens strictly after finalization: a [Deliverer] only ever sees
// complete artifacts. Destinations are a directory ([Directory]), SMTP mail
// ([Mailer]) and a MongoDB collection ([Archive]); [Multi] fans out to several.
package delivery

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/observability"
)

// LabelLayout formats the human-readable report date, e.g. "January 2, 2006".
const LabelLayout = "January 2, 2006"

// Artifact is one finalized report file.
type Artifact struct {
	Name   string // report-2006-01-02.pdf
	Date   string // 2006-01-02
	Format string // pdf, json
	Data   []byte
	RunID  string
}

// Label returns the long date label of the artifact's report date.
func (a Artifact) Label() string {
	t, err := time.Parse(errors.DateLayout, a.Date)
	if err != nil {
		return a.Date
	}
	return t.Format(LabelLayout)
}

// Deliverer sends artifacts to one destination.
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, a Artifact) error
}

// Multi delivers to each deliverer in order and stops at the first failure.
type Multi []Deliverer

// Name implements [Deliverer].
func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, d := range m {
		names[i] = d.Name()
	}
	return fmt.Sprint(names)
}

// Deliver implements [Deliverer]. Failures carry the DELIVERY_FAILED code and
// the failing destination's name.
func (m Multi) Deliver(ctx context.Context, a Artifact) error {
	hooks := observability.Pipeline()
	for _, d := range m {
		hooks.OnDeliverStart(ctx, d.Name(), a.Name)
		start := time.Now()
		err := d.Deliver(ctx, a)
		hooks.OnDeliverComplete(ctx, d.Name(), a.Name, time.Since(start), err)
		if err != nil {
			if errors.GetCode(err) != "" {
				return err
			}
			return errors.Wrap(errors.ErrCodeDeliveryFailed, err, "deliver %s via %s", a.Name, d.Name())
		}
	}
	return nil
}

// accepts reports whether format is in formats; an empty list accepts all.
func accepts(formats []string, format string) bool {
	return len(formats) == 0 || slices.Contains(formats, format)
}
