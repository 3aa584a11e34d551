package model

import "time"

// Review models a row in the `reviews` table. A review is written
// once by an authenticated user against a single spot and is never
// updated or deleted afterwards. Whenever reviews are read they are
// populated with the author's public profile fields, so the struct
// carries those alongside the raw columns.
//
// Fields:
//  ID             – primary key identifier.
//  AuthorID       – user ID of the reviewer.
//  SpotID         – spot the review belongs to.
//  Text           – non-empty review body.
//  Rating         – integer rating in [1,5].
//  CreatedAt   – timestamp of creation.
//  AuthorName  – populated from users.name at read time.
//  AuthorEmail – populated from users.email at read time; used to derive
//                the author's gravatar URL, never serialized directly.
type Review struct {
	ID          uint64    // reviews.id
	AuthorID    uint64    // reviews.author_id
	SpotID      uint64    // reviews.spot_id
	Text        string    // reviews.text
	Rating      uint8     // reviews.rating
	CreatedAt   time.Time // reviews.created_at
	AuthorName  string    // users.name (joined)
	AuthorEmail string    // users.email (joined)
}
