package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/loomline/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingInteractions is an in-memory InteractionRepository that records
// how many queries the engine issues.
type countingInteractions struct {
	saved       map[uint]struct{}
	existsCalls int
	bulkCalls   int
	failNext    bool
}

func (m *countingInteractions) ExistsSaved(_ context.Context, viewerID, threadID uint) (bool, error) {
	m.existsCalls++
	if m.failNext {
		return false, errors.New("storage down")
	}
	if viewerID == 0 {
		return false, nil
	}
	_, ok := m.saved[threadID]
	return ok, nil
}

func (m *countingInteractions) SavedThreadIDs(_ context.Context, viewerID uint, threadIDs []uint) (map[uint]struct{}, error) {
	m.bulkCalls++
	if m.failNext {
		return nil, errors.New("storage down")
	}
	out := make(map[uint]struct{})
	if viewerID == 0 {
		return out, nil
	}
	for _, id := range threadIDs {
		if _, ok := m.saved[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func makeThread(id uint, authorID uint) models.Thread {
	return models.Thread{
		ID:     id,
		UserID: authorID,
		User:   models.User{ID: authorID, Handle: "author", DisplayName: "Author"},
		Posts: []models.Post{
			{ThreadID: id, Position: 1, Content: "second"},
			{ThreadID: id, Position: 0, Content: "first"},
		},
		Status: models.ThreadStatusPublished,
	}
}

func TestEnrichManyBatchesSavedLookups(t *testing.T) {
	repo := &countingInteractions{saved: map[uint]struct{}{3: {}, 7: {}}}
	engine := NewEngine(repo)

	threads := []models.Thread{makeThread(1, 10), makeThread(3, 10), makeThread(5, 10), makeThread(7, 10)}

	out, err := engine.EnrichMany(context.Background(), threads, 42)
	require.NoError(t, err)
	require.Len(t, out, 4)

	// One bulk membership query for the whole batch
	assert.Equal(t, 1, repo.bulkCalls)
	assert.Equal(t, 0, repo.existsCalls)

	assert.False(t, out[0].IsSaved)
	assert.True(t, out[1].IsSaved)
	assert.False(t, out[2].IsSaved)
	assert.True(t, out[3].IsSaved)
}

func TestEnrichManyPreservesInputOrder(t *testing.T) {
	engine := NewEngine(&countingInteractions{})

	threads := []models.Thread{makeThread(9, 1), makeThread(2, 1), makeThread(5, 1)}

	out, err := engine.EnrichMany(context.Background(), threads, 42)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, uint(9), out[0].ID)
	assert.Equal(t, uint(2), out[1].ID)
	assert.Equal(t, uint(5), out[2].ID)
}

func TestEnrichManyEmptyBatchSkipsRepository(t *testing.T) {
	repo := &countingInteractions{}
	engine := NewEngine(repo)

	out, err := engine.EnrichMany(context.Background(), nil, 42)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, 0, repo.bulkCalls)
	assert.Equal(t, 0, repo.existsCalls)
}

func TestEnrichSortsPostsByPosition(t *testing.T) {
	engine := NewEngine(&countingInteractions{})

	thread := makeThread(1, 10)
	out, err := engine.EnrichOne(context.Background(), &thread, 0)
	require.NoError(t, err)

	require.Len(t, out.Posts, 2)
	assert.Equal(t, "first", out.Posts[0].Content)
	assert.Equal(t, "second", out.Posts[1].Content)
}

func TestEnrichComputesLikedFromPreloadedEdges(t *testing.T) {
	engine := NewEngine(&countingInteractions{})

	thread := makeThread(1, 10)
	thread.Likes = []models.ThreadLike{
		{UserID: 42, ThreadID: 1},
		{UserID: 99, ThreadID: 1},
	}

	asViewer, err := engine.EnrichOne(context.Background(), &thread, 42)
	require.NoError(t, err)
	assert.True(t, asViewer.IsLiked)

	asStranger, err := engine.EnrichOne(context.Background(), &thread, 7)
	require.NoError(t, err)
	assert.False(t, asStranger.IsLiked)
}

func TestEnrichAnonymousViewerGetsNoFlags(t *testing.T) {
	repo := &countingInteractions{saved: map[uint]struct{}{1: {}}}
	engine := NewEngine(repo)

	thread := makeThread(1, 10)
	thread.Likes = []models.ThreadLike{{UserID: 42, ThreadID: 1}}

	out, err := engine.EnrichOne(context.Background(), &thread, 0)
	require.NoError(t, err)
	assert.False(t, out.IsLiked)
	assert.False(t, out.IsSaved)
}

func TestEnrichFailsOnMissingAuthor(t *testing.T) {
	engine := NewEngine(&countingInteractions{})

	thread := makeThread(1, 10)
	thread.User = models.User{}

	_, err := engine.EnrichOne(context.Background(), &thread, 0)
	assert.Error(t, err)

	_, err = engine.EnrichMany(context.Background(), []models.Thread{thread}, 0)
	assert.Error(t, err)
}

func TestEnrichPropagatesRepositoryErrors(t *testing.T) {
	repo := &countingInteractions{failNext: true}
	engine := NewEngine(repo)

	thread := makeThread(1, 10)
	_, err := engine.EnrichOne(context.Background(), &thread, 42)
	assert.Error(t, err)

	_, err = engine.EnrichMany(context.Background(), []models.Thread{thread}, 42)
	assert.Error(t, err)
}

func TestEnrichImageURLsNeverNil(t *testing.T) {
	engine := NewEngine(&countingInteractions{})

	thread := makeThread(1, 10)
	out, err := engine.EnrichOne(context.Background(), &thread, 0)
	require.NoError(t, err)
	assert.NotNil(t, out.ImageURLs)
	assert.Empty(t, out.ImageURLs)
}
