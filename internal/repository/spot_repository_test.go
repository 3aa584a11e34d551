package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotatlas/spot-directory/internal/model"
)

const (
	countSlugQ  = `SELECT COUNT(*) FROM spots WHERE slug REGEXP ? AND id <> ?`
	timestampsQ = `SELECT created_at, updated_at FROM spots WHERE id = ?`
	deleteTagsQ = `DELETE FROM spot_tags WHERE spot_id = ?`
	insertTagQ  = `INSERT IGNORE INTO spot_tags (spot_id, tag) VALUES (?, ?)`
	lockSpotQ   = `SELECT name, slug, author_id FROM spots WHERE id = ? FOR UPDATE`
	insertSpotQ = `INSERT INTO spots`
	updateSpotQ = `UPDATE spots SET`
)

func tsRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)
}

func TestSpotCreateAssignsBaseSlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countSlugQ)).
		WithArgs(`^(taco-town)(-[0-9]*)?$`, 0).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))
	mock.ExpectExec(insertSpotQ).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteTagsQ)).WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertTagQ)).WithArgs(7, "tacos").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(timestampsQ)).WithArgs(7).
		WillReturnRows(tsRows())
	mock.ExpectCommit()

	repo := NewSpotRepo(db)
	s := model.Spot{AuthorID: 3, Name: "Taco Town", Address: "1 Main St", Lng: -122.4, Lat: 37.7, Tags: []string{"tacos"}}
	require.NoError(t, repo.Create(context.Background(), &s))

	assert.Equal(t, "taco-town", s.Slug)
	assert.Equal(t, uint64(7), s.ID)
	assert.False(t, s.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotCreateFirstDuplicateGetsZeroSuffix(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countSlugQ)).
		WithArgs(`^(taco-town)(-[0-9]*)?$`, 0).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))
	mock.ExpectExec(insertSpotQ).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteTagsQ)).WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(timestampsQ)).WithArgs(8).
		WillReturnRows(tsRows())
	mock.ExpectCommit()

	repo := NewSpotRepo(db)
	s := model.Spot{AuthorID: 3, Name: "Taco Town", Address: "1 Main St"}
	require.NoError(t, repo.Create(context.Background(), &s))

	assert.Equal(t, "taco-town-0", s.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotCreateRejectsUnsluggableName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := NewSpotRepo(db)
	s := model.Spot{AuthorID: 3, Name: "!!!"}
	err = repo.Create(context.Background(), &s)
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotCreateDuplicateSlugRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countSlugQ)).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))
	mock.ExpectExec(insertSpotQ).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'taco-town' for key 'spots.slug'"))
	mock.ExpectRollback()

	repo := NewSpotRepo(db)
	s := model.Spot{AuthorID: 3, Name: "Taco Town"}
	err = repo.Create(context.Background(), &s)
	assert.ErrorIs(t, err, ErrSlugTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotUpdateKeepsSlugWhenNameUnchanged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSpotQ)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"name", "slug", "author_id"}).
			AddRow("Taco Town", "taco-town-0", 3))
	// no slug count query: the name did not change
	mock.ExpectExec(updateSpotQ).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteTagsQ)).WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(timestampsQ)).WithArgs(5).
		WillReturnRows(tsRows())
	mock.ExpectCommit()

	repo := NewSpotRepo(db)
	s := model.Spot{ID: 5, Name: "Taco Town", Address: "2 Side St"}
	require.NoError(t, repo.Update(context.Background(), 3, &s))

	assert.Equal(t, "taco-town-0", s.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotUpdateRecomputesSlugOnRename(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSpotQ)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"name", "slug", "author_id"}).
			AddRow("Taco Town", "taco-town", 3))
	mock.ExpectQuery(regexp.QuoteMeta(countSlugQ)).
		WithArgs(`^(burrito-barn)(-[0-9]*)?$`, 5).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))
	mock.ExpectExec(updateSpotQ).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteTagsQ)).WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(timestampsQ)).WithArgs(5).
		WillReturnRows(tsRows())
	mock.ExpectCommit()

	repo := NewSpotRepo(db)
	s := model.Spot{ID: 5, Name: "Burrito Barn", Address: "2 Side St"}
	require.NoError(t, repo.Update(context.Background(), 3, &s))

	assert.Equal(t, "burrito-barn", s.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotUpdateForbiddenForNonAuthor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSpotQ)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"name", "slug", "author_id"}).
			AddRow("Taco Town", "taco-town", 3))
	mock.ExpectRollback()

	repo := NewSpotRepo(db)
	s := model.Spot{ID: 5, Name: "Taco Town"}
	err = repo.Update(context.Background(), 99, &s)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSpotQ)).WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"name", "slug", "author_id"}))
	mock.ExpectRollback()

	repo := NewSpotRepo(db)
	s := model.Spot{ID: 42, Name: "Ghost"}
	err = repo.Update(context.Background(), 3, &s)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotGetBySlugLoadsTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "author_id", "name", "slug", "description", "address", "lng", "lat", "photo", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT .+ FROM spots WHERE slug = .+").WithArgs("taco-town").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(5, 3, "Taco Town", "taco-town", "the best", "1 Main St", -122.4, 37.7, nil, now, now))
	mock.ExpectQuery("SELECT spot_id, tag FROM spot_tags").
		WillReturnRows(sqlmock.NewRows([]string{"spot_id", "tag"}).
			AddRow(5, "cheap").AddRow(5, "tacos"))

	repo := NewSpotRepo(db)
	s, err := repo.GetBySlug(context.Background(), "taco-town")
	require.NoError(t, err)

	assert.Equal(t, uint64(5), s.ID)
	assert.Equal(t, []string{"cheap", "tacos"}, s.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotGetBySlugNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "author_id", "name", "slug", "description", "address", "lng", "lat", "photo", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT .+ FROM spots WHERE slug = .+").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewSpotRepo(db)
	_, err = repo.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
