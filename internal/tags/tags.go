package tags

import (
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"milk2meat/internal/database"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSuggestions bounds the tag names returned by Suggest.
const MaxSuggestions = 10

// LetterGroup holds the tags sharing an upper-cased first letter; "#" collects
// tags starting with anything but a letter.
type LetterGroup struct {
	Letter string              `json:"letter"`
	Tags   []database.TagCount `json:"tags"`
}

// tagCountLister implements [collate.Lister] over tag names so the collator
// sorts them locale-aware instead of by code point.
type tagCountLister struct {
	tags []database.TagCount
}

func (l tagCountLister) Len() int {
	return len(l.tags)
}

func (l tagCountLister) Swap(i, j int) {
	l.tags[i], l.tags[j] = l.tags[j], l.tags[i]
}

func (l tagCountLister) Bytes(i int) []byte {
	return []byte(l.tags[i].Name)
}

// TagService orders and groups an owner's tags.
type TagService struct {
	Language language.Tag
	Options  []collate.Option
}

// NewTagService sorts tag names by the collation rules of lang.
func NewTagService(lang language.Tag, options ...collate.Option) TagService {
	return TagService{Language: lang, Options: options}
}

// SortByName sorts tags in place. A Collator keeps sort buffers, so every call builds its own.
func (s TagService) SortByName(tags []database.TagCount) {
	collate.New(s.Language, s.Options...).Sort(tagCountLister{tags: tags})
}

// GroupByLetter expects tags sorted by name and keeps that order inside and across groups.
func (s TagService) GroupByLetter(tags []database.TagCount) []LetterGroup {
	groups := make([]LetterGroup, 0)
	index := make(map[string]int)

	for _, t := range tags {
		letter := firstLetter(t.Name)
		if len(letter) == 0 {
			continue
		}

		i, ok := index[letter]
		if !ok {
			i = len(groups)
			index[letter] = i
			groups = append(groups, LetterGroup{Letter: letter})
		}
		groups[i].Tags = append(groups[i].Tags, t)
	}

	return groups
}

// Cloud returns a copy of tags ordered by count, most used first; ties keep their order.
func (s TagService) Cloud(tags []database.TagCount) []database.TagCount {
	cloud := slices.Clone(tags)
	slices.SortStableFunc(cloud, func(a, b database.TagCount) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		}
		return 0
	})
	return cloud
}

// Suggest ranks names by fuzzy match against query.
func (s TagService) Suggest(query string, names []string) []string {
	query = strings.TrimSpace(query)
	suggestions := make([]string, 0, MaxSuggestions)
	if len(query) == 0 {
		return suggestions
	}

	for _, match := range fuzzy.Find(query, names) {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == MaxSuggestions {
			break
		}
	}
	return suggestions
}

func firstLetter(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	if !unicode.IsLetter(r) {
		return "#"
	}
	return string(unicode.ToUpper(r))
}
