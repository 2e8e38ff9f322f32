package bible

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/models"
)

//go:embed books.yaml
var booksYaml []byte

// ErrBooksExist is returned by PopulateBooks when the books table is not empty.
var ErrBooksExist = errors.New("Bible books already exist in the database")

// Seeder loads the canonical list of books.
type Seeder struct {
	*environment.Env
}

// CanonicalBooks decodes the embedded book list.
func CanonicalBooks() ([]models.Book, error) {
	books := make([]models.Book, 0, 66)

	decoder := yaml.NewDecoder(bytes.NewReader(booksYaml))
	decoder.KnownFields(true)
	if err := decoder.Decode(&books); err != nil {
		return nil, fmt.Errorf("decoding embedded books: %w", err)
	}
	return books, nil
}

// PopulateBooks inserts all 66 books and returns how many were created.
// Nothing is written when any book exists already.
func (s *Seeder) PopulateBooks(ctx context.Context) (int, error) {
	var count int64
	if err := s.CountBooks(ctx, &count); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	if count > 0 {
		s.LogWarn(logging.GetLogTypeBible(), "Bible books already exist in the database. Command aborted.")
		return 0, ErrBooksExist
	}

	books, err := CanonicalBooks()
	if err != nil {
		return 0, err
	}

	if err = s.CreateBooks(ctx, books); err != nil {
		return 0, fmt.Errorf("creating books: %w", err)
	}

	s.LogInfof(logging.GetLogTypeBible(), "Successfully added %d books of the Bible.", len(books))
	return len(books), nil
}
