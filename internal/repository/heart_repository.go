package repository

import (
	"context"
	"database/sql"
	"strings"
)

// HeartRepo manages the hearts (favorites) set. Membership lives in a
// table keyed by (user_id, spot_id), so a single DELETE or INSERT flips
// it atomically; application code never does a read-modify-write on the
// set itself.
type HeartRepo struct {
	db *sql.DB
}

// NewHeartRepo constructs a HeartRepo with the given DB handle.
func NewHeartRepo(db *sql.DB) *HeartRepo { return &HeartRepo{db: db} }

// Toggle flips the membership of spotID in userID's hearts: present
// becomes absent, absent becomes present. The DELETE-then-INSERT runs in
// one transaction, and INSERT IGNORE absorbs the race where a concurrent
// toggle of the same pair lands between the two statements. The updated
// set of hearted spot IDs is returned so callers can reflect new state.
func (r *HeartRepo) Toggle(ctx context.Context, userID, spotID uint64) ([]uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM hearts WHERE user_id = ? AND spot_id = ?", userID, spotID)
	if err != nil {
		return nil, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		_, err = tx.ExecContext(ctx,
			"INSERT IGNORE INTO hearts (user_id, spot_id) VALUES (?, ?)", userID, spotID)
		if err != nil {
			// 1452: foreign key constraint fails, the spot does not exist
			if strings.Contains(strings.ToLower(err.Error()), "1452") {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	ids, err := listIDsTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListIDs returns the spot IDs currently hearted by the user.
func (r *HeartRepo) ListIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT spot_id FROM hearts WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

func listIDsTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT spot_id FROM hearts WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]uint64, error) {
	defer rows.Close()
	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
