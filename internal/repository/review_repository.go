package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/spotatlas/spot-directory/internal/model"
)

// ReviewRepo manages persistence for reviews. Reviews are written once
// and never updated or deleted; every read joins the author's public
// profile fields so callers never see a bare author id.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo constructs a ReviewRepo with the given DB handle.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review and populates the generated ID and the
// DB-default created_at on the given struct. A spot_id that references
// no spot trips the foreign key and comes back as ErrNotFound.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (author_id, spot_id, text, rating) VALUES (?, ?, ?, ?)",
		rev.AuthorID, rev.SpotID, rev.Text, rev.Rating)
	if err != nil {
		// 1452: foreign key constraint fails (unknown spot or user)
		if strings.Contains(strings.ToLower(err.Error()), "1452") {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM reviews WHERE id = ?", rev.ID,
	).Scan(&rev.CreatedAt)
}

const reviewJoin = `SELECT r.id, r.author_id, r.spot_id, r.text, r.rating, r.created_at, u.name, u.email
	 FROM reviews r JOIN users u ON u.id = r.author_id`

// ListForSpot returns all reviews of one spot, newest first, with the
// author populated.
func (r *ReviewRepo) ListForSpot(ctx context.Context, spotID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		reviewJoin+" WHERE r.spot_id = ? ORDER BY r.created_at DESC, r.id DESC", spotID)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

// ListForSpots returns the reviews of a set of spots keyed by spot id.
// It backs the list page, which shows each spot with its reviews.
func (r *ReviewRepo) ListForSpots(ctx context.Context, spotIDs []uint64) (map[uint64][]model.Review, error) {
	result := make(map[uint64][]model.Review, len(spotIDs))
	if len(spotIDs) == 0 {
		return result, nil
	}
	query := reviewJoin + " WHERE r.spot_id IN (?" + strings.Repeat(",?", len(spotIDs)-1) + ") ORDER BY r.created_at DESC, r.id DESC"
	args := make([]any, len(spotIDs))
	for i, id := range spotIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	revs, err := scanReviews(rows)
	if err != nil {
		return nil, err
	}
	for _, rev := range revs {
		result[rev.SpotID] = append(result[rev.SpotID], rev)
	}
	return result, nil
}

func scanReviews(rows *sql.Rows) ([]model.Review, error) {
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var (
			rev   model.Review
			email string
		)
		if err := rows.Scan(&rev.ID, &rev.AuthorID, &rev.SpotID, &rev.Text, &rev.Rating, &rev.CreatedAt, &rev.AuthorName, &email); err != nil {
			return nil, err
		}
		rev.AuthorEmail = email
		out = append(out, rev)
	}
	return out, rows.Err()
}
