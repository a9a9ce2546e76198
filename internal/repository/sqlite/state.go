package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/repository"
)

// StateRepository is the persistence contract the monitoring engine depends
// on. The stored state is the in-stock id set of the last completed run.
type StateRepository interface {
	GetState(ctx context.Context) (*models.PersistedState, error)
	UpdateState(ctx context.Context, state *models.PersistedState) error
	Close() error
}

// GetState implements an interface method for retrieving state from the database.
func (r *Repository) GetState(ctx context.Context) (*models.PersistedState, error) {
	const opn = "repository.sqlite.GetState"

	// 1. Get the timestamp of the last completed run.
	var checkedAt string
	err := r.db.QueryRowContext(ctx, "SELECT checked_at FROM run_state WHERE id = 1").Scan(&checkedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrStateNotFound
		}
		return nil, fmt.Errorf("%s: failed to get run timestamp: %w", opn, err)
	}

	timestamp, err := time.Parse(time.RFC3339, checkedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse run timestamp %q: %w", opn, checkedAt, err)
	}

	// 2. Get all persisted in-stock product ids.
	rows, err := r.db.QueryContext(ctx, "SELECT product_id FROM stock_items")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stock items: %w", opn, err)
	}
	defer rows.Close()

	// 3. Scan every row into the id list.
	var productIDs []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: failed to scan product id: %w", opn, err)
		}
		productIDs = append(productIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return &models.PersistedState{
		ProductIDs: productIDs,
		CheckedAt:  timestamp,
	}, nil
}

// UpdateState atomically overwrites the whole persisted state using a
// transaction. An empty id set is valid and intentionally clears the
// monitoring memory.
func (r *Repository) UpdateState(ctx context.Context, state *models.PersistedState) error {
	const opn = "repository.sqlite.UpdateState"

	// 1. Begin transaction.
	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // Because in Go, it's common practice to ignore the Rollback() error in a defer, since if the transaction committed successfully, the rollback would just return sql.ErrTxDone and it's not useful to log or act on.

	// 2. Update (or insert) the run timestamp.
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO run_state (id, checked_at) VALUES (1, ?)",
		state.CheckedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%s: failed to update run timestamp: %w", opn, err)
	}

	// 3. Completely clear the stock table to record the new current state.
	_, err = tx.ExecContext(ctx, "DELETE FROM stock_items")
	if err != nil {
		return fmt.Errorf("%s: failed to delete old stock items: %w", opn, err)
	}

	// 4. Preparing a request for the effective insertion of the new id set.
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO stock_items (product_id) VALUES (?)")
	if err != nil {
		return fmt.Errorf("%s: failed to prepare insert statement: %w", opn, err)
	}
	defer stmt.Close()

	// 5. Insert each in-stock product id.
	for _, id := range state.ProductIDs {
		if _, err = stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("%s: failed to insert product id %d: %w", opn, id, err)
		}
	}

	// 6. If all operations went through without errors - confirm the transaction.
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return nil
}
