package database

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when no record exists for a requested id.
var ErrNotFound = errors.New("image record not found")

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateImage inserts a new record for the given stored filename and
	// returns it with id and creation timestamp populated.
	CreateImage(filename string) (*Image, error)
	// GetAllImages returns all records ordered by creation time, newest first.
	GetAllImages() ([]*Image, error)
	// GetImageByID returns the record with the given id or ErrNotFound.
	GetImageByID(id string) (*Image, error)
	// DeleteImage removes the record with the given id; ErrNotFound if absent.
	DeleteImage(id string) error
}
