// Package slug derives URL safe identifiers from note titles, unique per owner.
package slug

import (
	"context"
	"errors"
	"fmt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"strings"
	"unicode"
)

// DefaultMaxAttempts bounds the suffix search of Generator.Unique.
const DefaultMaxAttempts = 10000

// ErrSlugExhausted means every candidate up to the attempt limit is taken by the same owner.
var ErrSlugExhausted = errors.New("no free slug within the attempt limit")

// Lookup answers whether slug is used by a note of ownerId other than excludeNoteId.
type Lookup interface {
	SlugExists(ctx context.Context, ownerId uint, slug string, excludeNoteId string) (bool, error)
}

// Slugify lowercases title, folds accents and collapses every run of characters
// outside [a-z0-9] into a single hyphen. Leading and trailing hyphens are trimmed.
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	sb.Grow(len(folded))

	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return sb.String()
}

// NeedsRecompute reports whether a note's slug must be (re)generated on save:
// when it has none yet, or when an existing note's title differs from the persisted one.
func NeedsRecompute(currentSlug, persistedTitle, newTitle string, isNew bool) bool {
	if len(currentSlug) == 0 {
		return true
	}
	return !isNew && persistedTitle != newTitle
}

// Generator produces owner scoped unique slugs.
type Generator struct {
	Lookup      Lookup
	MaxAttempts int
}

func NewGenerator(lookup Lookup) *Generator {
	return &Generator{Lookup: lookup, MaxAttempts: DefaultMaxAttempts}
}

// Unique returns the slug of title, suffixed with -1, -2, ... until no other note of ownerId uses it.
// excludeNoteId is the id of the note being saved (empty for new notes).
// Without an owner no lookup happens and the base slug is returned.
func (g *Generator) Unique(ctx context.Context, title string, ownerId uint, excludeNoteId string) (string, error) {
	base := Slugify(title)
	if ownerId == 0 || g.Lookup == nil {
		return base, nil
	}

	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	candidate := base
	for counter := 1; counter <= maxAttempts; counter++ {
		exists, err := g.Lookup.SlugExists(ctx, ownerId, candidate, excludeNoteId)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}

	return "", fmt.Errorf("%w: %q after %d attempts", ErrSlugExhausted, base, maxAttempts)
}
