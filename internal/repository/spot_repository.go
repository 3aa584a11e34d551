// Package repository contains data access logic for the spot domain. This
// file covers the write path (create and update, both of which run the slug
// assignment inside a transaction) and the read paths that return spots by
// slug, id, page, tag or heart membership. The location POINT column keeps
// X=longitude and Y=latitude; lng/lat are duplicated as plain doubles so
// rows scan without spatial functions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/spotatlas/spot-directory/internal/model"
	"github.com/spotatlas/spot-directory/internal/slug"
)

// ErrInvalidName indicates a spot name that slugifies to nothing, such as
// a string of punctuation only. Such a name cannot receive a URL.
var ErrInvalidName = errors.New("name does not produce a usable slug")

// ErrSlugTaken indicates the unique index on spots.slug rejected a write.
// It only occurs when two creates race between the collision count and the
// insert; handlers translate it into a retryable user message.
var ErrSlugTaken = errors.New("slug already taken")

// SpotRepo manages persistence for spots and their tags.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo constructs a SpotRepo with the given DB handle.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *SpotRepo) DB() *sql.DB { return r.db }

const spotColumns = "id, author_id, name, slug, description, address, lng, lat, photo, created_at, updated_at"

// assignSlugTx derives the slug for name and applies the collision policy
// against the slugs currently in the table. The count query matches the
// base slug or the base with a numeric suffix, case-insensitively, and
// excludes the row being updated so that renaming a spot never collides
// with itself. With n collisions the suffix is n-1, so the first duplicate
// of "taco-town" gets "taco-town-0".
func assignSlugTx(ctx context.Context, tx *sql.Tx, name string, excludeID uint64) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", ErrInvalidName
	}
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM spots WHERE slug REGEXP ? AND id <> ?",
		slug.MatchPattern(base), excludeID).Scan(&n)
	if err != nil {
		return "", err
	}
	return slug.Resolve(base, n), nil
}

// Create inserts a new spot together with its tags and assigns the
// generated ID, slug and DB-default timestamps back onto the struct.
// Slug assignment and the insert share one transaction so the collision
// count stays consistent with the write.
func (r *SpotRepo) Create(ctx context.Context, s *model.Spot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	s.Slug, err = assignSlugTx(ctx, tx, s.Name, 0)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO spots (author_id, name, slug, description, address, lng, lat, location, photo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, POINT(?, ?), ?)`,
		s.AuthorID, s.Name, s.Slug, s.Description, s.Address, s.Lng, s.Lat, s.Lng, s.Lat, s.Photo)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	if err := replaceTagsTx(ctx, tx, s.ID, s.Tags); err != nil {
		return err
	}

	// Query the inserted row back to obtain DB-default timestamps.
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM spots WHERE id = ?", s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites the mutable fields of a spot owned by actingUserID. The
// author reference never changes. The slug is recomputed only when the
// incoming name differs from the stored one; saving a spot with an
// unchanged name leaves its slug exactly as it was.
func (r *SpotRepo) Update(ctx context.Context, actingUserID uint64, s *model.Spot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		curName string
		curSlug string
		author  uint64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT name, slug, author_id FROM spots WHERE id = ? FOR UPDATE", s.ID,
	).Scan(&curName, &curSlug, &author)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if author != actingUserID {
		return ErrForbidden
	}

	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	s.AuthorID = author

	s.Slug = curSlug
	if s.Name != curName {
		s.Slug, err = assignSlugTx(ctx, tx, s.Name, s.ID)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE spots SET name=?, slug=?, description=?, address=?, lng=?, lat=?, location=POINT(?, ?), photo=?
		 WHERE id=?`,
		s.Name, s.Slug, s.Description, s.Address, s.Lng, s.Lat, s.Lng, s.Lat, s.Photo, s.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugTaken
		}
		return err
	}

	if err := replaceTagsTx(ctx, tx, s.ID, s.Tags); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM spots WHERE id = ?", s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// replaceTagsTx rewrites the spot_tags rows for a spot. Tags are stored as
// a set: duplicates in the incoming slice collapse via INSERT IGNORE on
// the (spot_id, tag) primary key, so TagCounts sees each spot at most once
// per tag.
func replaceTagsTx(ctx context.Context, tx *sql.Tx, spotID uint64, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM spot_tags WHERE spot_id = ?", spotID); err != nil {
		return err
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO spot_tags (spot_id, tag) VALUES (?, ?)", spotID, t); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches a spot (with tags) by primary key.
func (r *SpotRepo) GetByID(ctx context.Context, id uint64) (model.Spot, error) {
	return r.getOne(ctx, "SELECT "+spotColumns+" FROM spots WHERE id = ? LIMIT 1", id)
}

// GetBySlug fetches a spot (with tags) by its slug.
func (r *SpotRepo) GetBySlug(ctx context.Context, slugVal string) (model.Spot, error) {
	return r.getOne(ctx, "SELECT "+spotColumns+" FROM spots WHERE slug = ? LIMIT 1", slugVal)
}

func (r *SpotRepo) getOne(ctx context.Context, query string, arg any) (model.Spot, error) {
	var s model.Spot
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.AuthorID, &s.Name, &s.Slug, &s.Description, &s.Address,
		&s.Lng, &s.Lat, &s.Photo, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Spot{}, ErrNotFound
	}
	if err != nil {
		return model.Spot{}, err
	}
	tags, err := r.loadTags(ctx, []uint64{s.ID})
	if err != nil {
		return model.Spot{}, err
	}
	s.Tags = tags[s.ID]
	return s, nil
}

// List returns one page of spots (newest first) together with the total
// row count so the caller can compute the page count.
func (r *SpotRepo) List(ctx context.Context, page, pageSize int) ([]model.Spot, int64, error) {
	if page < 1 {
		page = 1
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spots").Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+spotColumns+" FROM spots ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	spots, err := r.scanSpots(ctx, rows)
	return spots, total, err
}

// ListByTag returns every spot carrying the given tag.
func (r *SpotRepo) ListByTag(ctx context.Context, tag string) ([]model.Spot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+spotColumnsPrefixed+`
		 FROM spots s JOIN spot_tags st ON st.spot_id = s.id
		 WHERE st.tag = ?
		 ORDER BY s.created_at DESC, s.id DESC`, tag)
	if err != nil {
		return nil, err
	}
	return r.scanSpots(ctx, rows)
}

// ListTagged returns every spot carrying at least one tag.
func (r *SpotRepo) ListTagged(ctx context.Context) ([]model.Spot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT `+spotColumnsPrefixed+`
		 FROM spots s JOIN spot_tags st ON st.spot_id = s.id
		 ORDER BY s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, err
	}
	return r.scanSpots(ctx, rows)
}

// ListHearted returns the spots a user has hearted.
func (r *SpotRepo) ListHearted(ctx context.Context, userID uint64) ([]model.Spot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+spotColumnsPrefixed+`
		 FROM spots s JOIN hearts h ON h.spot_id = s.id
		 WHERE h.user_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.scanSpots(ctx, rows)
}

const spotColumnsPrefixed = "s.id, s.author_id, s.name, s.slug, s.description, s.address, s.lng, s.lat, s.photo, s.created_at, s.updated_at"

func (r *SpotRepo) scanSpots(ctx context.Context, rows *sql.Rows) ([]model.Spot, error) {
	defer rows.Close()
	out := []model.Spot{}
	ids := []uint64{}
	for rows.Next() {
		var s model.Spot
		if err := rows.Scan(
			&s.ID, &s.AuthorID, &s.Name, &s.Slug, &s.Description, &s.Address,
			&s.Lng, &s.Lat, &s.Photo, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tags = tags[out[i].ID]
	}
	return out, nil
}

// loadTags fetches the spot_tags rows for a set of spot IDs in one query.
func (r *SpotRepo) loadTags(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	result := make(map[uint64][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := "SELECT spot_id, tag FROM spot_tags WHERE spot_id IN (?" + strings.Repeat(",?", len(ids)-1) + ") ORDER BY tag"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			spotID uint64
			tag    string
		)
		if err := rows.Scan(&spotID, &tag); err != nil {
			return nil, err
		}
		result[spotID] = append(result[spotID], tag)
	}
	return result, rows.Err()
}
