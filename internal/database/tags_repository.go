package database

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"milk2meat/internal/models"
)

func (g *GormRepository) FindAllNoteTypes(ctx context.Context, noteTypes *[]models.NoteType) error {
	return g.DB.
		WithContext(ctx).
		Order("name").
		Find(noteTypes).
		Error
}

func (g *GormRepository) FindNoteTypeById(ctx context.Context, id uint, noteType *models.NoteType) error {
	return g.DB.
		WithContext(ctx).
		Take(noteType, id).
		Error
}

func (g *GormRepository) FindNoteTypeByName(ctx context.Context, name string, noteType *models.NoteType) error {
	return g.DB.
		WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		Take(noteType).
		Error
}

func (g *GormRepository) CreateNoteType(ctx context.Context, noteType *models.NoteType) error {
	return g.DB.
		WithContext(ctx).
		Create(noteType).
		Error
}

func (g *GormRepository) FindOrCreateTags(ctx context.Context, names []string, tags *[]models.Tag) error {
	if len(names) == 0 {
		return nil
	}

	return g.DB.
		WithContext(ctx).
		Transaction(func(tx *gorm.DB) error {
			for _, name := range names {
				var tag models.Tag
				err := tx.Where("LOWER(name) = LOWER(?)", name).Take(&tag).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					tag = models.Tag{Name: name}
					err = tx.Create(&tag).Error
				}
				if err != nil {
					return err
				}
				*tags = append(*tags, tag)
			}
			return nil
		})
}

func (g *GormRepository) FindTagCountsByOwner(ctx context.Context, ownerId uint, tagCounts *[]TagCount) error {
	return g.DB.
		WithContext(ctx).
		Table("tags").
		Select("tags.id AS id, tags.name AS name, COUNT(notes.id) AS count").
		Joins("JOIN note_tags ON note_tags.tag_id = tags.id").
		Joins("JOIN notes ON notes.id = note_tags.note_id").
		Where("notes.owner_id = ?", ownerId).
		Group("tags.id, tags.name").
		Order("count DESC, tags.name").
		Scan(tagCounts).
		Error
}

func (g *GormRepository) FindOrphanedTagIds(ctx context.Context, tagIds *[]uint) error {
	return g.DB.
		WithContext(ctx).
		Raw(`
				SELECT t.id
				FROM tags t
				WHERE NOT EXISTS (
					SELECT 1 FROM note_tags nt WHERE nt.tag_id = t.id
				)`).
		Scan(tagIds).
		Error
}

func (g *GormRepository) DeleteTagsByIds(ctx context.Context, tagIds []uint) error {
	return g.DB.
		WithContext(ctx).
		Exec("DELETE FROM tags WHERE id IN ?", tagIds).
		Error
}
