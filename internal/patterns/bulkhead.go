package patterns

import (
	"fmt"
	"time"

	"github.com/brightech/goldpay/internal/metrics"
)

// Bulkhead caps concurrent calls to an external collaborator. A burst of pay
// presses must not pile 30-second link creations onto a struggling gateway.
type Bulkhead struct {
	semaphore chan struct{}
	name      string
}

// NewBulkhead creates a bulkhead with the given capacity.
func NewBulkhead(size int, name string) *Bulkhead {
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		name:      name,
	}
}

// Execute runs fn within the bulkhead's limits, rejecting after one second of
// waiting for a slot.
func (b *Bulkhead) Execute(fn func() error) error {
	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.name).Dec()
		}()

		return fn()

	case <-time.After(1 * time.Second):
		metrics.BulkheadRejectedRequests.WithLabelValues(b.name).Inc()
		return fmt.Errorf("bulkhead %s: timeout acquiring resource", b.name)
	}
}
