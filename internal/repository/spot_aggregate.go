package repository

import (
	"context"

	"github.com/spotatlas/spot-directory/internal/model"
)

// TopSpotRow is one row of the top-rated aggregation: a spot annotated
// with its review count and mean rating. AverageRating is the plain
// float average as computed by the database, unrounded.
type TopSpotRow struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Photo         *string `json:"photo"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// TagCounts returns every distinct tag with the number of spots carrying
// it, ordered by descending count. No filter and no pagination: the full
// distinct-tag list comes back. Ties keep whatever order the database
// produces.
func (r *SpotRepo) TagCounts(ctx context.Context) ([]model.TagCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag, COUNT(*) AS cnt
		 FROM spot_tags
		 GROUP BY tag
		 ORDER BY cnt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TagCount{}
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// TopRated joins spots to their reviews, keeps only spots with strictly
// more than one review, annotates each with its mean rating, sorts by
// that mean descending and caps the result at 10. A spot with a single
// perfect review never appears.
func (r *SpotRepo) TopRated(ctx context.Context) ([]TopSpotRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.name, s.slug, s.photo,
		        COUNT(r.id) AS review_count,
		        AVG(r.rating) AS average_rating
		 FROM spots s
		 JOIN reviews r ON r.spot_id = s.id
		 GROUP BY s.id, s.name, s.slug, s.photo
		 HAVING COUNT(r.id) > 1
		 ORDER BY average_rating DESC
		 LIMIT 10`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopSpotRow{}
	for rows.Next() {
		var t TopSpotRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Photo, &t.ReviewCount, &t.AverageRating); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
