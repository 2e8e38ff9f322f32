package database

import (
	"context"
	"milk2meat/internal/models"
)

func (g *GormRepository) FindAllBooks(ctx context.Context, books *[]models.Book) error {
	return g.DB.
		WithContext(ctx).
		Order("number").
		Find(books).
		Error
}

func (g *GormRepository) FindBookById(ctx context.Context, id uint, book *models.Book) error {
	return g.DB.
		WithContext(ctx).
		Take(book, id).
		Error
}

func (g *GormRepository) FindBooksByIds(ctx context.Context, ids []uint, books *[]models.Book) error {
	if len(ids) == 0 {
		return nil
	}
	return g.DB.
		WithContext(ctx).
		Where("id IN ?", ids).
		Order("number").
		Find(books).
		Error
}

func (g *GormRepository) CountBooks(ctx context.Context, count *int64) error {
	return g.DB.
		WithContext(ctx).
		Model(&models.Book{}).
		Count(count).
		Error
}

func (g *GormRepository) CreateBooks(ctx context.Context, books []models.Book) error {
	if len(books) == 0 {
		return nil
	}
	return g.DB.
		WithContext(ctx).
		Create(&books).
		Error
}

func (g *GormRepository) UpdateBook(ctx context.Context, book *models.Book) error {
	return g.DB.
		WithContext(ctx).
		Model(book).
		Select("TitleAndAuthor", "DateAndOccasion", "CharacteristicsAndThemes", "ChristInBook", "Outline", "Timeline").
		Updates(book).
		Error
}
