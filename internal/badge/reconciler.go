// File: internal/badge/reconciler.go
package badge

import (
	"context"
	"fmt"
	"sync"

	"github.com/Brcolf/naarscars-notify/internal/bus"
	"github.com/Brcolf/naarscars-notify/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler computes and republishes per-surface unread counts.
//
// Badge semantics are locked to "distinct unread subjects": the value for a
// subject-scoped surface is the number of distinct subjects with at least one
// unread eligible notification, never the raw unread row count. The remote
// aggregate endpoint is the single authority for that number; LocalEstimate
// exists so a UI can render something before the first aggregate call lands,
// and must never drive a badge decrement on its own.
type Reconciler struct {
	gateway notification.Gateway
	cache   notification.Cache
	bus     *bus.Bus
	logger  *zap.Logger

	mu      sync.RWMutex
	current map[notification.Surface]int
}

// NewReconciler creates a new badge reconciler.
func NewReconciler(gateway notification.Gateway, cache notification.Cache, eventBus *bus.Bus, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		gateway: gateway,
		cache:   cache,
		bus:     eventBus,
		logger:  logger.Named("BadgeReconciler"),
		current: make(map[notification.Surface]int),
	}
}

// RefreshAll queries the canonical aggregate endpoint and republishes every
// surface's count. Called after every successful mark-read, mark-all or
// scoped-clear, and after every fallback reconciliation.
func (r *Reconciler) RefreshAll(ctx context.Context, ownerID uuid.UUID, reason string) error {
	counts, err := r.gateway.FetchBadgeCounts(ctx, ownerID)
	if err != nil {
		r.logger.Warn("Badge aggregate fetch failed",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return fmt.Errorf("badge refresh (%s) failed: %w", reason, err)
	}

	r.mu.Lock()
	for surface, count := range counts {
		r.current[surface] = count
	}
	r.mu.Unlock()

	for surface, count := range counts {
		r.bus.Publish(bus.Event{
			Kind: bus.BadgeUpdated,
			Payload: bus.BadgePayload{
				Surface: string(surface),
				Count:   count,
			},
		})
	}

	r.logger.Debug("Badges republished",
		zap.String("reason", reason),
		zap.Int("surfaces", len(counts)),
	)
	return nil
}

// Current returns the last count published for a surface. Values reflect the
// most recent successful aggregate call, not whichever local computation ran
// last.
func (r *Reconciler) Current(surface notification.Surface) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current[surface]
}

// Snapshot returns all last-known surface counts.
func (r *Reconciler) Snapshot() map[notification.Surface]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[notification.Surface]int, len(r.current))
	for s, c := range r.current {
		out[s] = c
	}
	return out
}

// LocalEstimate derives an advisory bell count from the cache using the same
// distinct-subject definition as the aggregate endpoint. Display fallback
// only; it never overwrites Current.
func (r *Reconciler) LocalEstimate(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return r.cache.UnreadSubjectCount(ctx, ownerID)
}
