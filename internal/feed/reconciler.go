// File: internal/feed/reconciler.go
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/badge"
	"github.com/Brcolf/naarscars-notify/internal/bus"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler is the debounce callback target: it converges the local cache
// toward the remote store. Every pass republishes badge counts; only
// fallback passes run the full fetch-and-merge.
type Reconciler struct {
	cache   notification.Cache
	gateway notification.Gateway
	badges  *badge.Reconciler
	session shared.Session
	bus     *bus.Bus
	logger  *zap.Logger
	timeout time.Duration

	// mu serializes merge passes; new events during an in-flight pass
	// reschedule the debouncer, they never cancel in-flight calls.
	mu sync.Mutex
}

// NewReconciler creates a reconciler.
func NewReconciler(
	cache notification.Cache,
	gateway notification.Gateway,
	badges *badge.Reconciler,
	session shared.Session,
	eventBus *bus.Bus,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		cache:   cache,
		gateway: gateway,
		badges:  badges,
		session: session,
		bus:     eventBus,
		logger:  logger.Named("Reconciler"),
		timeout: 30 * time.Second,
	}
}

// Reconcile runs one debounced pass. The badge refresh happens on every
// pass; the full fetch-and-merge only when isFallback is set, since plain
// refresh events carry no row changes the remote aggregate misses.
func (r *Reconciler) Reconcile(reason string, isFallback bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ownerID, err := r.session.OwnerID()
	if err != nil {
		r.logger.Debug("Skipping reconciliation without session", zap.String("reason", reason))
		return
	}

	// Badge refresh first: cheap, and the UI wants the count before the
	// merge round-trip completes.
	if err := r.badges.RefreshAll(ctx, ownerID, reason); err != nil {
		r.logger.Warn("Badge refresh during reconciliation failed",
			zap.String("reason", reason),
			zap.Error(err),
		)
	}

	if !isFallback {
		return
	}

	if err := r.fetchAndMerge(ctx, ownerID, reason); err != nil {
		r.logger.Error("Fetch-and-merge failed",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	r.bus.Publish(bus.Event{Kind: bus.FeedRefreshed})
}

// ForceRefresh is the user-initiated path: always a full merge.
func (r *Reconciler) ForceRefresh(ctx context.Context, reason string) error {
	ownerID, err := r.session.OwnerID()
	if err != nil {
		return err
	}
	if err := r.fetchAndMerge(ctx, ownerID, reason); err != nil {
		return err
	}
	r.bus.Publish(bus.Event{Kind: bus.FeedRefreshed})
	if err := r.badges.RefreshAll(ctx, ownerID, reason); err != nil {
		r.logger.Warn("Badge refresh after forced merge failed", zap.Error(err))
	}
	return nil
}

func (r *Reconciler) fetchAndMerge(ctx context.Context, ownerID uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.gateway.Fetch(ctx, ownerID, true)
	if err != nil {
		return fmt.Errorf("remote fetch failed: %w", err)
	}
	if err := r.cache.ReplaceForOwner(ctx, ownerID, rows); err != nil {
		return fmt.Errorf("cache merge failed: %w", err)
	}
	r.logger.Info("Cache reconciled with remote store",
		zap.String("reason", reason),
		zap.Int("rows", len(rows)),
	)
	return nil
}
