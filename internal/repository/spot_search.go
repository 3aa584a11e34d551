package repository

import (
	"context"

	"github.com/spotatlas/spot-directory/internal/model"
)

// maxDistanceMeters bounds the proximity search radius. The value is
// carried over literally from the system this replaces, where it was
// commented as "10 km" despite being 80 km worth of meters; the literal
// wins over the comment.
const maxDistanceMeters = 80000

// nearResultCap bounds how many rows a proximity query may return. 50
// keeps a dense city block from streaming the whole table.
const nearResultCap = 50

// NearSpotRow is the reduced projection returned to map clients: slug,
// name, description, the location (coordinates plus address) and the
// photo filename. Everything else stays server-side.
type NearSpotRow struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Photo       *string `json:"photo"`
}

// TextSearch runs a relevance-ranked full-text query over spot names and
// descriptions and returns at most 5 spots, best match first. The MATCH
// expression appears twice so MySQL both filters and exposes the score
// for ordering. An empty query string matches nothing and yields an
// empty slice, which is the store-defined behavior this API keeps.
func (r *SpotRepo) TextSearch(ctx context.Context, q string) ([]model.Spot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+spotColumnsPrefixed+`
		 FROM spots s
		 WHERE MATCH(s.name, s.description) AGAINST (? IN NATURAL LANGUAGE MODE)
		 ORDER BY MATCH(s.name, s.description) AGAINST (? IN NATURAL LANGUAGE MODE) DESC
		 LIMIT 5`, q, q)
	if err != nil {
		return nil, err
	}
	return r.scanSpots(ctx, rows)
}

// Near returns the spots within maxDistanceMeters of the given point,
// closest first, projected down to NearSpotRow. The POINT argument is
// built as (lng, lat) to match the stored column.
func (r *SpotRepo) Near(ctx context.Context, lng, lat float64) ([]NearSpotRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.slug, s.name, s.description, s.address, s.lng, s.lat, s.photo
		 FROM spots s
		 WHERE ST_Distance_Sphere(s.location, POINT(?, ?)) <= ?
		 ORDER BY ST_Distance_Sphere(s.location, POINT(?, ?)) ASC
		 LIMIT ?`,
		lng, lat, maxDistanceMeters, lng, lat, nearResultCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []NearSpotRow{}
	for rows.Next() {
		var n NearSpotRow
		if err := rows.Scan(&n.Slug, &n.Name, &n.Description, &n.Address, &n.Lng, &n.Lat, &n.Photo); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
