package model

import "time"

// Spot represents a user-submitted place as stored in the `spots`
// table. Each field corresponds to a column. The slug is derived
// from the name on create and whenever the name changes; it is
// never accepted from user input directly. Longitude and latitude
// are duplicated out of the POINT column so that rows can be
// scanned without spatial functions.
//
// Fields:
//  ID          – primary key identifier of the spot.
//  AuthorID    – user ID of the submitting author; immutable after creation.
//  Name        – trimmed display name.
//  Slug        – unique URL-safe identifier derived from Name.
//  Description – trimmed free-text description (may be empty).
//  Address     – free-text address of the location.
//  Lng, Lat    – coordinates of the location point.
//  Photo       – filename of the stored photo (nil when none uploaded).
//  Tags        – distinct tag values, loaded from the spot_tags table.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Spot struct {
	ID          uint64    // spots.id
	AuthorID    uint64    // spots.author_id
	Name        string    // spots.name
	Slug        string    // spots.slug
	Description string    // spots.description
	Address     string    // spots.address
	Lng         float64   // spots.lng
	Lat         float64   // spots.lat
	Photo       *string   // spots.photo (nullable)
	Tags        []string  // spot_tags.tag rows for this spot
	CreatedAt   time.Time // spots.created_at
	UpdatedAt   time.Time // spots.updated_at
}

// TagCount is one row of the tag aggregation: a distinct tag value
// and the number of spots carrying it, ordered by Count descending
// when returned from the repository.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}
