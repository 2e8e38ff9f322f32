package search

import (
	"cmp"
	"context"
	"fmt"
	"milk2meat/internal/api"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"slices"
	"strings"
	"time"
	"unicode"
)

const (
	// DefaultMaxCandidates bounds the rows fetched per registration before ranking.
	DefaultMaxCandidates = 200
	snippetRadius        = 60
	ownerColumn          = "owner_id"
)

// Registration makes one entity searchable.
type Registration struct {
	// Entity names the kind of the matches, e.g. "note"
	Entity string
	Table  string
	// Fields are matched against the term; the first one is used as the result title
	Fields []string
	// Stored fields are returned with every match
	Stored      []string
	OwnerScoped bool
	// Url builds the link of a match from its id
	Url func(id string) string
}

func (r Registration) target() database.SearchTarget {
	t := database.SearchTarget{
		Table:  r.Table,
		Fields: r.Fields,
		Stored: r.Stored,
	}
	if r.OwnerScoped {
		t.OwnerColumn = ownerColumn
	}
	return t
}

// DefaultRegistrations returns the searchable entities: the caller's notes and the shared Bible books.
func DefaultRegistrations() []Registration {
	return []Registration{
		{
			Entity:      "note",
			Table:       "notes",
			Fields:      []string{"title", "content"},
			Stored:      []string{"slug", "updated_at"},
			OwnerScoped: true,
			Url: func(id string) string {
				return "/notes/" + id
			},
		},
		{
			Entity: "book",
			Table:  "books",
			Fields: []string{
				"title",
				"title_and_author",
				"date_and_occasion",
				"characteristics_and_themes",
				"christ_in_book",
				"outline",
			},
			Stored: []string{"testament", "chapters"},
			Url: func(id string) string {
				return "/books/" + id
			},
		},
	}
}

// Result is one ranked match.
type Result struct {
	Entity     string         `json:"entity"`
	Id         string         `json:"id"`
	Title      string         `json:"title"`
	Url        string         `json:"url,omitempty"`
	Snippet    Snippet        `json:"snippet"`
	Stored     map[string]any `json:"stored"`
	Similarity float64        `json:"similarity"`
}

// Snippet is the text surrounding the first occurrence of the term.
type Snippet struct {
	TextBeforeMatch string `json:"textBeforeMatch"`
	MatchingText    string `json:"matchingText"`
	TextAfterMatch  string `json:"textAfterMatch"`
}

// Index searches the registered entities.
type Index struct {
	*environment.Env
	registrations []Registration
	MaxCandidates int
}

// NewIndex registers the searchable entities once at bootstrap.
// It panics on a registration without table or fields.
func NewIndex(env *environment.Env, registrations []Registration) *Index {
	for _, r := range registrations {
		if len(r.Table) == 0 || len(r.Fields) == 0 {
			panic(fmt.Sprintf("search registration %q needs a table and at least one field", r.Entity))
		}
	}
	return &Index{
		Env:           env,
		registrations: slices.Clone(registrations),
		MaxCandidates: DefaultMaxCandidates,
	}
}

// Registrations returns the registered entities in registration order.
func (i *Index) Registrations() []Registration {
	return slices.Clone(i.registrations)
}

// Search matches term against every registration, ranks the matches by trigram similarity
// and returns the requested page. Owner-scoped entities only match rows of ownerId.
func (i *Index) Search(ctx context.Context, ownerId uint, term string, pageable api.Pageable) (api.Page[Result], error) {
	term = strings.TrimSpace(term)
	pageable.Sort = api.NewSort([]api.Order{{Property: "similarity", Direction: api.DESC}})

	if len(term) == 0 {
		return api.NewPage([]Result{}, pageable, 0), nil
	}

	start := time.Now()

	var total int64
	results := make([]Result, 0)
	for _, r := range i.registrations {
		target := r.target()

		var count int64
		if err := i.CountSearchMatches(ctx, target, ownerId, term, &count); err != nil {
			return api.Page[Result]{}, fmt.Errorf("error counting %s matches: %w", r.Entity, err)
		}
		if count == 0 {
			continue
		}
		total += count

		rows := make([]map[string]any, 0)
		if err := i.FindSearchMatches(ctx, target, ownerId, term, i.MaxCandidates, &rows); err != nil {
			return api.Page[Result]{}, fmt.Errorf("error reading %s matches: %w", r.Entity, err)
		}

		for _, row := range rows {
			results = append(results, newResult(r, row, term))
		}
	}

	// most similar first; registration order breaks ties
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	i.LogDebugf(logging.GetLogTypeSearch(), "ranked %d of %d matches for %q in %s", len(results), total, term, time.Since(start))

	return api.NewPage(pageOf(results, pageable), pageable, int(total)), nil
}

func pageOf(results []Result, pageable api.Pageable) []Result {
	offset := pageable.Offset()
	if offset >= len(results) || pageable.PageSize <= 0 {
		return []Result{}
	}
	end := min(offset+pageable.PageSize, len(results))
	return results[offset:end]
}

func newResult(r Registration, row map[string]any, term string) Result {
	id := stringify(row["id"])

	result := Result{
		Entity: r.Entity,
		Id:     id,
		Title:  stringify(row[r.Fields[0]]),
		Stored: make(map[string]any, len(r.Stored)),
	}
	if r.Url != nil {
		result.Url = r.Url(id)
	}

	for _, f := range r.Stored {
		result.Stored[f] = row[f]
	}

	snippetFound := false
	for _, f := range r.Fields {
		text := stringify(row[f])
		if s := TrigramSorensenDiceSimilarity(term, text); s > result.Similarity {
			result.Similarity = s
		}
		if !snippetFound {
			result.Snippet, snippetFound = snippet(text, term)
		}
	}

	return result
}

// snippet cuts the text around the first case-insensitive occurrence of term.
func snippet(text, term string) (Snippet, bool) {
	runes := []rune(text)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	needle := []rune(strings.ToLower(term))
	at := indexRunes(lowered, needle)
	if at < 0 {
		return Snippet{}, false
	}

	from := max(at-snippetRadius, 0)
	to := min(at+len(needle)+snippetRadius, len(runes))

	return Snippet{
		TextBeforeMatch: string(runes[from:at]),
		MatchingText:    string(runes[at : at+len(needle)]),
		TextAfterMatch:  string(runes[at+len(needle) : to]),
	}, true
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if slices.Equal(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
