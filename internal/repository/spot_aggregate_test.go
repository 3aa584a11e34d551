package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotatlas/spot-directory/internal/model"
)

func TestTagCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT tag, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"tag", "cnt"}).
			AddRow("wifi", 12).AddRow("cheap", 7).AddRow("vegetarian", 2))

	repo := NewSpotRepo(db)
	counts, err := repo.TagCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []model.TagCount{
		{Tag: "wifi", Count: 12},
		{Tag: "cheap", Count: 7},
		{Tag: "vegetarian", Count: 2},
	}, counts)
}

func TestTagCountsEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT tag, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"tag", "cnt"}))

	repo := NewSpotRepo(db)
	counts, err := repo.TagCounts(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, counts)
	assert.Len(t, counts, 0)
}

func TestTopRatedKeepsRawAverage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("HAVING COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "photo", "review_count", "average_rating"}).
			AddRow(5, "Taco Town", "taco-town", nil, 3, 4.6667).
			AddRow(9, "Burrito Barn", "burrito-barn", "b.jpg", 2, 4.5))

	repo := NewSpotRepo(db)
	top, err := repo.TopRated(context.Background())
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, "taco-town", top[0].Slug)
	assert.InDelta(t, 4.6667, top[0].AverageRating, 1e-9)
	assert.Equal(t, int64(2), top[1].ReviewCount)
}

func TestTextSearchPassesQueryTwice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "author_id", "name", "slug", "description", "address", "lng", "lat", "photo", "created_at", "updated_at"}
	mock.ExpectQuery("MATCH").WithArgs("coffee", "coffee").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(5, 3, "Coffee Corner", "coffee-corner", "good coffee", "1 Main St", -122.4, 37.7, nil, now, now))
	mock.ExpectQuery("SELECT spot_id, tag FROM spot_tags").
		WillReturnRows(sqlmock.NewRows([]string{"spot_id", "tag"}))

	repo := NewSpotRepo(db)
	spots, err := repo.TextSearch(context.Background(), "coffee")
	require.NoError(t, err)

	require.Len(t, spots, 1)
	assert.Equal(t, "coffee-corner", spots[0].Slug)
}

func TestNearBoundsRadiusAndCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("ST_Distance_Sphere").
		WithArgs(-122.4, 37.7, maxDistanceMeters, -122.4, 37.7, nearResultCap).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name", "description", "address", "lng", "lat", "photo"}).
			AddRow("taco-town", "Taco Town", "the best", "1 Main St", -122.41, 37.71, nil))

	repo := NewSpotRepo(db)
	rows, err := repo.Near(context.Background(), -122.4, 37.7)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "taco-town", rows[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}
