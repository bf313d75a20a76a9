package database

import "time"

// Image is the metadata record for a single stored image. The JSON field
// names are part of the public API contract, including the legacy "_id" key.
type Image struct {
	ID        string    `json:"_id" db:"id"`
	Filename  string    `json:"filename" db:"filename"` // name of the blob in the upload store
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
