package models

type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

func (t Testament) Label() string {
	switch t {
	case OldTestament:
		return "Old Testament"
	case NewTestament:
		return "New Testament"
	}
	return string(t)
}

// Book is one of the 66 books of the Bible together with its study introduction.
// The introduction fields hold Markdown.
type Book struct {
	Model
	Title                    string    `gorm:"not null;uniqueIndex;size:55" json:"title" yaml:"title"`
	Abbreviation             string    `gorm:"not null;uniqueIndex;size:10" json:"abbreviation" yaml:"abbreviation"`
	Testament                Testament `gorm:"not null;size:2;index" json:"testament" yaml:"testament"`
	Number                   int       `gorm:"not null;uniqueIndex" json:"number" yaml:"number"`
	Chapters                 int       `gorm:"not null" json:"chapters" yaml:"chapters"`
	TitleAndAuthor           string    `gorm:"type:text" json:"titleAndAuthor" yaml:"-"`
	DateAndOccasion          string    `gorm:"type:text" json:"dateAndOccasion" yaml:"-"`
	CharacteristicsAndThemes string    `gorm:"type:text" json:"characteristicsAndThemes" yaml:"-"`
	ChristInBook             string    `gorm:"type:text" json:"christInBook" yaml:"-"`
	Outline                  string    `gorm:"type:text" json:"outline" yaml:"-"`
	Timeline                 Timeline  `gorm:"type:jsonb;serializer:json" json:"timeline" yaml:"-"`
}

// Timeline is persisted as {"events": [{"date": ..., "description": ...}]}.
type Timeline struct {
	Events []TimelineEvent `json:"events"`
}

type TimelineEvent struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}
