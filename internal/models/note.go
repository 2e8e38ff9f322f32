package models

import (
	"github.com/samborkent/uuidv7"
	"gorm.io/gorm"
	"path"
	"strings"
	"time"
)

type NoteType struct {
	Model
	Name        string `gorm:"not null;uniqueIndex;size:50" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

type Tag struct {
	Model
	Name string `gorm:"not null;uniqueIndex;size:100" json:"name"`
}

// Note is a user's Markdown note. Slug is unique per owner; Content is stored verbatim.
type Note struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `gorm:"index" json:"updatedAt"`
	Title           string    `gorm:"not null;size:200" json:"title"`
	Slug            string    `gorm:"not null;size:255;uniqueIndex:idx_notes_owner_slug,priority:2" json:"slug"`
	Content         string    `gorm:"type:text" json:"content"`
	Upload          string    `gorm:"size:255" json:"upload,omitempty"`
	NoteTypeID      *uint     `json:"noteTypeId"`
	NoteType        *NoteType `gorm:"constraint:OnDelete:SET NULL" json:"noteType,omitempty"`
	OwnerID         uint      `gorm:"not null;uniqueIndex:idx_notes_owner_slug,priority:1" json:"ownerId"`
	Owner           *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tags            []Tag     `gorm:"many2many:note_tags" json:"tags"`
	ReferencedBooks []Book    `gorm:"many2many:note_referenced_books" json:"referencedBooks"`
}

// BeforeCreate assigns a time ordered id to new notes.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if len(n.ID) == 0 {
		n.ID = uuidv7.New().String()
	}
	return nil
}

func (n *Note) IsOwnedBy(userId uint) bool {
	return n.OwnerID != 0 && n.OwnerID == userId
}

func (n *Note) HasUpload() bool {
	return len(n.Upload) > 0
}

// UploadName returns the file name part of the upload key.
func (n *Note) UploadName() string {
	if !n.HasUpload() {
		return ""
	}
	return path.Base(n.Upload)
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {}, ".svg": {},
}

// UploadIsImage reports whether the upload can be shown inline as an image.
func (n *Note) UploadIsImage() bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(n.Upload))]
	return n.HasUpload() && ok
}

func (n *Note) TagNames() []string {
	names := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		names = append(names, t.Name)
	}
	return names
}
