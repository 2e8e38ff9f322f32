package notes

import (
	"context"
	"errors"
	"fmt"
	"gorm.io/gorm"
	"math/rand/v2"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/models"
	"milk2meat/internal/utils"
	"strings"
	"time"
)

const (
	DemoAdminEmail    = "admin@example.com"
	DemoAdminPassword = "adminpassword"
	DefaultDemoCount  = 20
)

// ErrNoBooks is returned when demo notes are requested before the books were populated.
var ErrNoBooks = errors.New("no Bible books found. Run populate-books first")

var demoNoteTypes = []models.NoteType{
	{Name: "Bible Study", Description: "In-depth study of a passage or book of the Bible"},
	{Name: "Sermon Notes", Description: "Notes taken while listening to a sermon"},
	{Name: "Devotional", Description: "Personal reflections from daily devotional reading"},
	{Name: "Exhortation", Description: "Words of encouragement and challenge for fellow believers"},
	{Name: "Book Review", Description: "Summary and evaluation of a Christian book"},
	{Name: "Family Devotion", Description: "Material prepared for family worship"},
	{Name: "Prayer Journal", Description: "Prayer requests, answers and reflections"},
	{Name: "Character Study", Description: "Study of a person in the Bible"},
	{Name: "Theological Study", Description: "Exploration of a doctrine or theological theme"},
	{Name: "Scripture Memorization", Description: "Verses being memorized with notes on their meaning"},
}

var demoTags = []string{
	"salvation", "faith", "grace", "gospel", "Jesus", "prayer", "worship", "sin", "redemption", "covenant",
	"prophecy", "wisdom", "love", "mercy", "justice", "holiness", "sanctification", "sovereignty", "trinity",
	"discipleship", "mission", "atonement", "justification", "election", "eschatology", "pentateuch",
	"historical-books", "prophets", "gospels", "epistles", "revelation", "parables", "miracles", "creation",
	"fall", "exodus", "kingdom", "church", "heaven", "hell", "end-times", "spiritual-gifts", "fruit-of-spirit",
	"sermon-on-mount", "ten-commandments", "lords-prayer", "apologetics", "hermeneutics", "typology",
}

var demoWords = []string{
	"faith", "grace", "hope", "promise", "light", "word", "covenant", "mercy", "truth", "spirit",
	"kingdom", "servant", "shepherd", "cross", "glory", "peace", "law", "temple", "wilderness", "harvest",
	"walk", "rest", "bread", "water", "vine", "lamb", "king", "heart", "mountain", "river",
	"the", "of", "in", "and", "with", "through", "before", "under", "beyond", "among",
	"abides", "calls", "remains", "restores", "reveals", "sustains", "gathers", "redeems", "endures", "speaks",
}

// DemoSeeder fills the database with randomized notes for the first superuser.
type DemoSeeder struct {
	*environment.Env
	Notes *NoteService
	Rand  *rand.Rand
	Now   func() time.Time
}

func NewDemoSeeder(env *environment.Env, service *NoteService) *DemoSeeder {
	now := time.Now()
	return &DemoSeeder{
		Env:   env,
		Notes: service,
		Rand:  rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x6d696c6b)),
		Now:   time.Now,
	}
}

// Run creates count demo notes and returns how many were created.
func (d *DemoSeeder) Run(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultDemoCount
	}

	books := make([]models.Book, 0)
	if err := d.FindAllBooks(ctx, &books); err != nil {
		return 0, fmt.Errorf("reading books: %w", err)
	}
	if len(books) == 0 {
		return 0, ErrNoBooks
	}

	owner, err := d.superuser(ctx)
	if err != nil {
		return 0, err
	}

	noteTypes, err := d.noteTypes(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := 0; i < count; i++ {
		note, err := d.demoNote(ctx, owner.ID, noteTypes, books)
		if err != nil {
			return created, err
		}

		if err = d.Notes.Save(ctx, note, "", true); err != nil {
			return created, fmt.Errorf("saving demo note %q: %w", note.Title, err)
		}
		created++
		d.LogDebugf(logging.GetLogTypeNotes(note.ID), "created demo note %q", note.Title)
	}

	d.LogInfof(logging.GetLogTypeNotes(), "created %d demo notes for %s", created, owner.Email)
	return created, nil
}

func (d *DemoSeeder) superuser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := d.FindFirstSuperuser(ctx, &user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reading superuser: %w", err)
	}

	hash, err := models.Hash(DemoAdminPassword)
	if err != nil {
		return nil, err
	}

	user = models.User{
		Email:       DemoAdminEmail,
		Password:    string(hash),
		FirstName:   "Admin",
		LastName:    "User",
		IsSuperuser: true,
	}
	if err = d.CreateUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("creating superuser: %w", err)
	}

	d.LogInfof(logging.GetLogTypeAuth(), "created superuser %s", user.Email)
	return &user, nil
}

func (d *DemoSeeder) noteTypes(ctx context.Context) ([]models.NoteType, error) {
	existing := make([]models.NoteType, 0)
	if err := d.FindAllNoteTypes(ctx, &existing); err != nil {
		return nil, fmt.Errorf("reading note types: %w", err)
	}
	byName := utils.SliceToMap(existing, func(nt models.NoteType) string {
		return strings.ToLower(nt.Name)
	})

	noteTypes := make([]models.NoteType, 0, len(demoNoteTypes))
	for _, demo := range demoNoteTypes {
		noteType, ok := byName[strings.ToLower(demo.Name)]
		if !ok {
			noteType = demo
			if err := d.CreateNoteType(ctx, &noteType); err != nil {
				return nil, fmt.Errorf("preparing note type %s: %w", demo.Name, err)
			}
		}
		noteTypes = append(noteTypes, noteType)
	}

	return noteTypes, nil
}

func (d *DemoSeeder) demoNote(ctx context.Context, ownerId uint, noteTypes []models.NoteType, books []models.Book) (*models.Note, error) {
	noteType := noteTypes[d.Rand.IntN(len(noteTypes))]
	title := fmt.Sprintf("%s: %s", noteType.Name, d.titleCase(d.sentence(3, 6)))

	referenced := d.pickBooks(books, d.Rand.IntN(4))

	tags := make([]models.Tag, 0)
	if err := d.FindOrCreateTags(ctx, d.pickTags(1+d.Rand.IntN(5)), &tags); err != nil {
		return nil, fmt.Errorf("preparing tags: %w", err)
	}

	daysAgo := d.Rand.IntN(366)
	createdAt := d.Now().AddDate(0, 0, -daysAgo)
	updatedAt := createdAt.AddDate(0, 0, d.Rand.IntN(min(daysAgo, 30)+1))

	return &models.Note{
		Title:           title,
		Content:         d.content(title, books),
		OwnerID:         ownerId,
		NoteTypeID:      &noteType.ID,
		Tags:            tags,
		ReferencedBooks: referenced,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func (d *DemoSeeder) content(title string, books []models.Book) string {
	var sb strings.Builder

	sb.WriteString("# " + title + "\n\n")
	for i := 3 + d.Rand.IntN(4); i > 0; i-- {
		sb.WriteString(d.paragraph() + "\n\n")
	}

	book := books[d.Rand.IntN(len(books))]
	chapter := 1 + d.Rand.IntN(max(book.Chapters, 1))
	verse := 1 + d.Rand.IntN(20)
	fmt.Fprintf(&sb, "> %s %d:%d-%d\n\n", book.Title, chapter, verse, verse+1+d.Rand.IntN(5))

	sb.WriteString("## Reflection Questions\n\n")
	for i := 0; i < 3; i++ {
		sb.WriteString("- " + d.sentence(5, 10) + "\n")
	}

	return sb.String()
}

func (d *DemoSeeder) paragraph() string {
	sentences := make([]string, 3+d.Rand.IntN(4))
	for i := range sentences {
		sentences[i] = d.sentence(6, 14)
	}
	return strings.Join(sentences, " ")
}

// sentence returns between minWords and maxWords words, capitalized and ending with a period.
func (d *DemoSeeder) sentence(minWords, maxWords int) string {
	words := make([]string, minWords+d.Rand.IntN(maxWords-minWords+1))
	for i := range words {
		words[i] = demoWords[d.Rand.IntN(len(demoWords))]
	}
	s := strings.Join(words, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (d *DemoSeeder) titleCase(s string) string {
	words := strings.Fields(strings.TrimSuffix(s, "."))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (d *DemoSeeder) pickBooks(books []models.Book, n int) []models.Book {
	picked := make([]models.Book, 0, n)
	for _, i := range d.Rand.Perm(len(books))[:min(n, len(books))] {
		picked = append(picked, books[i])
	}
	return picked
}

func (d *DemoSeeder) pickTags(n int) []string {
	picked := make([]string, 0, n)
	for _, i := range d.Rand.Perm(len(demoTags))[:n] {
		picked = append(picked, demoTags[i])
	}
	return picked
}
