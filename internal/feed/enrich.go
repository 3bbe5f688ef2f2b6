package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/loomline/backend/internal/metrics"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/repository"
)

// PostResponse is one thread segment in its public shape.
type PostResponse struct {
	Position int    `json:"position"`
	Content  string `json:"content"`
}

// ThreadResponse is the externally visible, viewer-personalized thread
// representation.
type ThreadResponse struct {
	ID           uint                 `json:"id"`
	Author       models.PublicProfile `json:"author"`
	Posts        []PostResponse       `json:"posts"`
	CategoryName *string              `json:"category_name"`
	LikeCount    int                  `json:"like_count"`
	CommentCount int                  `json:"comment_count"`
	ViewCount    int                  `json:"view_count"`
	SaveCount    int                  `json:"save_count"`
	ImageURLs    []string             `json:"image_urls"`
	IsLiked      bool                 `json:"is_liked"`
	IsSaved      bool                 `json:"is_saved"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Engine composes raw thread aggregates with viewer-specific interaction
// flags. is_liked is scanned from the like edges preloaded on the thread;
// is_saved goes through the interaction repository, batched to one query
// per call regardless of batch size.
type Engine struct {
	interactions repository.InteractionRepository
}

// NewEngine creates an enrichment engine.
func NewEngine(interactions repository.InteractionRepository) *Engine {
	return &Engine{interactions: interactions}
}

// EnrichOne maps a single thread to its personalized response shape.
// viewerID 0 means anonymous: both flags come back false.
func (e *Engine) EnrichOne(ctx context.Context, thread *models.Thread, viewerID uint) (*ThreadResponse, error) {
	start := time.Now()

	saved, err := e.interactions.ExistsSaved(ctx, viewerID, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve saved status: %w", err)
	}

	resp, err := e.buildResponse(thread, viewerID, saved)
	if err != nil {
		return nil, err
	}

	m := metrics.Get()
	m.FeedEnrichmentDuration.WithLabelValues("one").Observe(time.Since(start).Seconds())
	m.FeedThreadsEnriched.WithLabelValues("one").Inc()

	return resp, nil
}

// EnrichMany personalizes a batch of threads for one viewer, preserving
// input order. Saved flags for the whole batch are resolved with a single
// bulk membership query; an empty batch returns an empty slice without
// touching the repository.
func (e *Engine) EnrichMany(ctx context.Context, threads []models.Thread, viewerID uint) ([]ThreadResponse, error) {
	if len(threads) == 0 {
		return []ThreadResponse{}, nil
	}

	start := time.Now()

	ids := make([]uint, len(threads))
	for i := range threads {
		ids[i] = threads[i].ID
	}

	savedSet, err := e.interactions.SavedThreadIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve saved set: %w", err)
	}

	responses := make([]ThreadResponse, 0, len(threads))
	for i := range threads {
		_, saved := savedSet[threads[i].ID]
		resp, err := e.buildResponse(&threads[i], viewerID, saved)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}

	m := metrics.Get()
	m.FeedEnrichmentDuration.WithLabelValues("many").Observe(time.Since(start).Seconds())
	m.FeedThreadsEnriched.WithLabelValues("many").Add(float64(len(responses)))

	return responses, nil
}

// buildResponse assembles the response shape shared by EnrichOne and
// EnrichMany. The saved flag is resolved by the caller; liked is computed
// here from the preloaded like edges.
func (e *Engine) buildResponse(thread *models.Thread, viewerID uint, saved bool) (*ThreadResponse, error) {
	// Referential integrity guarantees an author; a thread without one is
	// corrupt, not a recoverable case.
	if thread.User.ID == 0 {
		return nil, fmt.Errorf("thread %d has no loaded author", thread.ID)
	}

	posts := make([]PostResponse, len(thread.Posts))
	for i, p := range thread.Posts {
		posts[i] = PostResponse{Position: p.Position, Content: p.Content}
	}
	// Position is the public narrative order, regardless of storage order
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Position < posts[j].Position
	})

	imageURLs := make([]string, 0, len(thread.Images))
	for _, img := range thread.Images {
		imageURLs = append(imageURLs, img.URL)
	}

	var categoryName *string
	if thread.Category != nil {
		name := thread.Category.Name
		categoryName = &name
	}

	liked := false
	if viewerID != 0 {
		for _, like := range thread.Likes {
			if like.UserID == viewerID {
				liked = true
				break
			}
		}
	}

	return &ThreadResponse{
		ID:           thread.ID,
		Author:       thread.User.Public(),
		Posts:        posts,
		CategoryName: categoryName,
		LikeCount:    thread.LikeCount,
		CommentCount: thread.CommentCount,
		ViewCount:    thread.ViewCount,
		SaveCount:    thread.SaveCount,
		ImageURLs:    imageURLs,
		IsLiked:      liked,
		IsSaved:      saved,
		CreatedAt:    thread.CreatedAt,
	}, nil
}
