package database

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	// created_at holds Unix milliseconds so the listing order is a plain
	// integer sort
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateImage(filename string) (*Image, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC().Truncate(time.Millisecond)
	_, err = s.db.Exec("INSERT INTO images (id, filename, created_at) VALUES (?, ?, ?)",
		id, filename, createdAt.UnixMilli())
	if err != nil {
		return nil, err
	}

	return &Image{
		ID:        id,
		Filename:  filename,
		CreatedAt: createdAt,
	}, nil
}

func (s *SQLiteDatabase) GetAllImages() ([]*Image, error) {
	// id as secondary sort keeps the order stable for equal timestamps
	rows, err := s.db.Query("SELECT id, filename, created_at FROM images ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var images []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteDatabase) GetImageByID(id string) (*Image, error) {
	row := s.db.QueryRow("SELECT id, filename, created_at FROM images WHERE id = ?", id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *SQLiteDatabase) DeleteImage(id string) error {
	result, err := s.db.Exec("DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*Image, error) {
	var img Image
	var createdAtMilli int64
	if err := row.Scan(&img.ID, &img.Filename, &createdAtMilli); err != nil {
		return nil, err
	}
	img.CreatedAt = time.UnixMilli(createdAtMilli).UTC()
	return &img, nil
}
