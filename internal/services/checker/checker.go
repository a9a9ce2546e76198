package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/stock-flow/internal/catalog"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/internal/repository"
	"github.com/Houeta/stock-flow/internal/repository/sqlite"
	"github.com/google/uuid"
)

// Timestamps are persisted and reported in the shop's local time.
var jst = time.FixedZone("JST", 9*60*60)

// Checker is an orchestrator that performs a full monitoring cycle.
type Checker struct {
	log       *slog.Logger
	fetcher   catalog.Fetcher
	extractor *catalog.Extractor
	repo      sqlite.StateRepository
	notifier  notifier.Interface
	opts      Options
	now       func() time.Time
}

// Options configure one monitoring cycle.
type Options struct {
	CollectionID int
	// Inspect runs the full cycle, state persistence included, without
	// dispatching notifications.
	Inspect bool
}

// RunResult is the outcome of one completed monitoring cycle.
type RunResult struct {
	CollectionName string
	Snapshot       *models.StockSnapshot
	NewlyAvailable []models.ProductAvailability
	CheckedAt      time.Time
}

type Interface interface {
	// Run performs the full monitoring cycle.
	Run(ctx context.Context) (*RunResult, error)
}

// NewChecker creates a new Checker instance.
func NewChecker(
	log *slog.Logger,
	fetcher catalog.Fetcher,
	extractor *catalog.Extractor,
	repo sqlite.StateRepository,
	ntf notifier.Interface,
	opts Options,
) *Checker {
	return &Checker{
		log:       log,
		fetcher:   fetcher,
		extractor: extractor,
		repo:      repo,
		notifier:  ntf,
		opts:      opts,
		now:       func() time.Time { return time.Now().In(jst) },
	}
}

// Run performs the full monitoring cycle: fetch every catalog page, build
// the availability snapshot, diff the in-stock set against the previous run,
// notify about newly available products, and persist the current set.
func (c *Checker) Run(ctx context.Context) (*RunResult, error) {
	const opn = "checker.Run"
	log := c.log.With("op", opn, "run_id", uuid.NewString())

	checkedAt := c.now()

	// 1. Retrieve the whole collection listing.
	log.InfoContext(ctx, "Fetching collection", "collection_id", c.opts.CollectionID)
	collection, err := c.fetcher.FetchCollection(ctx, c.opts.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch collection: %w", opn, err)
	}

	// 2. Build the availability snapshot.
	snapshot := c.extractor.BuildSnapshot(collection.Products)
	log.InfoContext(ctx, "Built stock snapshot",
		"collection", collection.Name,
		"total", snapshot.Total(),
		"in_stock", len(snapshot.InStock),
		"out_of_stock", len(snapshot.OutOfStock))

	// 3. Load the previous in-stock set. A missing or unreadable state is
	// treated as "no prior state", never as a fatal error.
	previousIDs := c.loadPreviousIDs(ctx, log)

	// 4. Determine which in-stock products are new since the last run.
	currentIDs := snapshot.InStockIDs()
	newIDs := newlyAvailable(currentIDs, previousIDs)
	batch := filterByID(snapshot.InStock, newIDs)
	log.InfoContext(ctx, "Availability diff complete",
		"current_in_stock", len(currentIDs), "previous_in_stock", len(previousIDs), "newly_available", len(batch))

	// 5. Notify only when something newly became available.
	var notifyErr error
	switch {
	case len(batch) == 0:
		log.InfoContext(ctx, "No newly available products, notification skipped")
	case c.opts.Inspect:
		log.InfoContext(ctx, "Inspect mode, notification suppressed", "newly_available", len(batch))
	default:
		notifyErr = c.notifier.Notify(ctx, collection.Name, checkedAt, batch)
		if notifyErr != nil {
			notifyErr = fmt.Errorf("%s: failed to notify: %w", opn, notifyErr)
		}
	}

	// 6. Persist the current in-stock set, the empty set included; that
	// reset is what lets restocked products notify again later. Persistence
	// happens even when notification failed, so the next run diffs against
	// the attempted set.
	newState := &models.PersistedState{ProductIDs: currentIDs, CheckedAt: checkedAt}
	if err = c.repo.UpdateState(ctx, newState); err != nil {
		log.WarnContext(ctx, "Failed to persist monitoring state, next run may re-notify", "error", err)
	} else {
		log.InfoContext(ctx, "Successfully persisted monitoring state", "in_stock", len(currentIDs))
	}

	if notifyErr != nil {
		return nil, notifyErr
	}

	return &RunResult{
		CollectionName: collection.Name,
		Snapshot:       snapshot,
		NewlyAvailable: batch,
		CheckedAt:      checkedAt,
	}, nil
}

// loadPreviousIDs reads the persisted state, swallowing read failures into
// an empty set.
func (c *Checker) loadPreviousIDs(ctx context.Context, log *slog.Logger) []int64 {
	oldState, err := c.repo.GetState(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrStateNotFound) {
			log.WarnContext(ctx, "Failed to read previous state, assuming empty", "error", err)
		}
		return nil
	}

	log.DebugContext(ctx, "Loaded previous state",
		"previous_in_stock", len(oldState.ProductIDs), "previous_checked_at", oldState.CheckedAt)

	return oldState.ProductIDs
}

// newlyAvailable returns current − previous as a set difference, preserving
// the order of current.
func newlyAvailable(current, previous []int64) []int64 {
	previousSet := make(map[int64]struct{}, len(previous))
	for _, id := range previous {
		previousSet[id] = struct{}{}
	}

	var news []int64
	for _, id := range current {
		if _, ok := previousSet[id]; !ok {
			news = append(news, id)
		}
	}
	return news
}

// filterByID returns the products whose id is in ids, preserving order.
func filterByID(products []models.ProductAvailability, ids []int64) []models.ProductAvailability {
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	var batch []models.ProductAvailability
	for _, p := range products {
		if _, ok := idSet[p.ID]; ok {
			batch = append(batch, p)
		}
	}
	return batch
}
