package notes_test

import (
	"context"
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand/v2"
	"milk2meat/internal/environment"
	"milk2meat/internal/models"
	"milk2meat/internal/notes"
	"strings"
	"testing"
	"time"
)

func newDemoSeeder(repo *mockRepository) *notes.DemoSeeder {
	env := environment.Null()
	env.Repository = repo

	seeder := notes.NewDemoSeeder(env, notes.NewNoteService(env, newMockStorage()))
	seeder.Rand = rand.New(rand.NewPCG(1, 2))
	seeder.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return seeder
}

// every demo note gets a distinct id so the mock keeps them all
type demoRepository struct {
	*mockRepository
	next int
}

func (d *demoRepository) SaveNote(ctx context.Context, note *models.Note, isNew bool) error {
	d.next++
	note.ID = fmt.Sprintf("0190a6c4-0000-7000-8000-%012d", d.next)
	return d.mockRepository.SaveNote(ctx, note, isNew)
}

func TestDemoSeeder_Run(t *testing.T) {
	repo := newMockRepository()
	// only the first two demo types exist
	repo.noteTypes = map[uint]models.NoteType{1: repo.noteTypes[1], 2: repo.noteTypes[2]}
	demoRepo := &demoRepository{mockRepository: repo}

	env := environment.Null()
	env.Repository = demoRepo
	seeder := notes.NewDemoSeeder(env, notes.NewNoteService(env, newMockStorage()))
	seeder.Rand = rand.New(rand.NewPCG(1, 2))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seeder.Now = func() time.Time { return now }

	created, err := seeder.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, created)
	require.Len(t, repo.saved, 5)

	require.Len(t, repo.users, 1)
	assert.Equal(t, notes.DemoAdminEmail, repo.users[0].Email)
	assert.True(t, repo.users[0].IsSuperuser)
	assert.NoError(t, models.VerifyPassword(repo.users[0].Password, notes.DemoAdminPassword))

	assert.Len(t, repo.createdTypes, 8)

	for _, note := range repo.saved {
		assert.Equal(t, repo.users[0].ID, note.OwnerID)
		assert.NotEmpty(t, note.Slug)
		assert.Contains(t, note.Title, ": ")
		assert.True(t, strings.HasPrefix(note.Content, "# "+note.Title+"\n\n"))
		assert.Contains(t, note.Content, "## Reflection Questions")
		assert.Contains(t, note.Content, "\n> ")
		assert.GreaterOrEqual(t, len(note.Tags), 1)
		assert.LessOrEqual(t, len(note.Tags), 5)
		assert.LessOrEqual(t, len(note.ReferencedBooks), 3)
		assert.False(t, note.CreatedAt.After(now))
		assert.False(t, note.UpdatedAt.Before(note.CreatedAt))
		assert.True(t, note.CreatedAt.After(now.AddDate(0, 0, -366)))
	}
}

func TestDemoSeeder_ReusesSuperuser(t *testing.T) {
	repo := newMockRepository()
	repo.users = []models.User{{Model: models.Model{ID: 3}, Email: "root@example.com", IsSuperuser: true}}

	_, err := newDemoSeeder(repo).Run(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, repo.users, 1)
	assert.Equal(t, uint(3), repo.saved[0].OwnerID)
}

func TestDemoSeeder_RequiresBooks(t *testing.T) {
	repo := newMockRepository()
	repo.books = nil

	created, err := newDemoSeeder(repo).Run(context.Background(), 3)
	assert.True(t, errors.Is(err, notes.ErrNoBooks))
	assert.Zero(t, created)
	assert.Empty(t, repo.users)
}
