package database

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"milk2meat/internal/models"
)

const defaultNoteOrder = "notes.updated_at DESC, notes.created_at DESC"

// filtered applies filter to a notes query; subqueries avoid duplicate rows from the joins.
func filtered(filter NoteFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sub := db.Session(&gorm.Session{NewDB: true})

		if len(filter.NoteType) > 0 {
			db = db.Where("notes.note_type_id IN (?)",
				sub.Model(&models.NoteType{}).
					Select("id").
					Where("LOWER(name) = LOWER(?)", filter.NoteType))
		}

		if filter.BookId > 0 {
			db = db.Where("notes.id IN (?)",
				sub.Table("note_referenced_books").
					Select("note_id").
					Where("book_id = ?", filter.BookId))
		}

		if len(filter.Tag) > 0 {
			db = db.Where("notes.id IN (?)",
				sub.Table("note_tags").
					Select("note_tags.note_id").
					Joins("JOIN tags ON tags.id = note_tags.tag_id").
					Where("LOWER(tags.name) = LOWER(?)", filter.Tag))
		}

		if len(filter.Query) > 0 {
			pattern := containsPattern(filter.Query)
			db = db.Where("notes.title ILIKE ? OR notes.content ILIKE ? OR notes.id IN (?)",
				pattern,
				pattern,
				sub.Table("note_tags").
					Select("note_tags.note_id").
					Joins("JOIN tags ON tags.id = note_tags.tag_id").
					Where("tags.name ILIKE ?", pattern))
		}

		return db
	}
}

func (g *GormRepository) FindNotes(ctx context.Context, ownerId uint, filter NoteFilter, offset, limit int, notes *[]models.Note) error {
	order := filter.OrderBy
	if len(order) == 0 {
		order = defaultNoteOrder
	}

	return g.DB.
		WithContext(ctx).
		Model(&models.Note{}).
		Scopes(OwnedBy(ownerId), filtered(filter)).
		Preload("NoteType").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(notes).
		Error
}

func (g *GormRepository) CountNotes(ctx context.Context, ownerId uint, filter NoteFilter, count *int64) error {
	return g.DB.
		WithContext(ctx).
		Model(&models.Note{}).
		Scopes(OwnedBy(ownerId), filtered(filter)).
		Count(count).
		Error
}

func (g *GormRepository) FindNoteById(ctx context.Context, id string, note *models.Note) error {
	return g.DB.
		WithContext(ctx).
		Preload("NoteType").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("ReferencedBooks", func(db *gorm.DB) *gorm.DB { return db.Order("books.number") }).
		Where("notes.id = ?", id).
		Take(note).
		Error
}

func (g *GormRepository) SlugExists(ctx context.Context, ownerId uint, slug string, excludeNoteId string) (bool, error) {
	// owner first, matching idx_notes_owner_slug
	q := OwnedBy(ownerId)(g.DB.
		WithContext(ctx).
		Model(&models.Note{})).
		Where("notes.slug = ?", slug)

	if len(excludeNoteId) > 0 {
		q = q.Where("notes.id <> ?", excludeNoteId)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *GormRepository) SaveNote(ctx context.Context, note *models.Note, isNew bool) error {
	return g.DB.
		WithContext(ctx).
		Transaction(func(tx *gorm.DB) error {
			var err error
			if isNew {
				err = tx.Omit(clause.Associations).Create(note).Error
			} else {
				err = tx.Omit(clause.Associations).Save(note).Error
			}
			if err != nil {
				return err
			}

			if err = tx.Model(note).Association("Tags").Replace(note.Tags); err != nil {
				return err
			}
			return tx.Model(note).Association("ReferencedBooks").Replace(note.ReferencedBooks)
		})
}

func (g *GormRepository) DeleteNote(ctx context.Context, note *models.Note) error {
	return g.DB.
		WithContext(ctx).
		Select(clause.Associations).
		Delete(note).
		Error
}
