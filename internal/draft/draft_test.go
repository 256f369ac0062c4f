package draft

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/circuit/internal/models"
)

func complete() Draft {
	return Draft{
		ClubName:        "Acme Club",
		UniversityName:  "Acme University",
		IsNewClub:       true,
		CompetitionName: "Acme Case Cup",
		EventDate:       "2026-03-14",
		ReviewText:      strings.Repeat("solid case and fair judging ", 5),
		Metrics:         models.Ratings{Case: 5, Communication: 4, Fairness: 4, Logistics: 3},
		IsAnonymous:     false,
	}
}

func TestValidate(t *testing.T) {
	v := complete().Validate()
	require.True(t, v.Valid, v.Problems)
	require.Equal(t, 25, v.WordCount)

	blank := Empty().Validate()
	require.False(t, blank.Valid)
	require.Len(t, blank.Problems, 5)
	require.Zero(t, blank.WordCount)

	short := complete()
	short.ReviewText = "  too   short\n\tby far "
	v = short.Validate()
	require.False(t, v.Valid)
	require.Equal(t, 4, v.WordCount)

	halfClub := complete()
	halfClub.UniversityName = " "
	require.False(t, halfClub.Validate().Valid)

	existing := complete()
	existing.IsNewClub = false
	existing.ClubID = "club-1"
	existing.ClubName = ""
	existing.UniversityName = ""
	require.True(t, existing.Validate().Valid)

	unrated := complete()
	unrated.Metrics.Logistics = 0
	require.False(t, unrated.Validate().Valid)

	outOfRange := complete()
	outOfRange.Metrics.Case = 6
	require.False(t, outOfRange.Validate().Valid)

	badDate := complete()
	badDate.EventDate = "14/03/2026"
	require.False(t, badDate.Validate().Valid)
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, time.Hour), mr
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	d, err := c.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, Empty(), d)

	first := complete()
	require.NoError(t, c.Save(ctx, "k", first))
	got, err := c.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, first, got)

	// Save replaces the slot wholesale.
	second := Draft{CompetitionName: "Other"}
	require.NoError(t, c.Save(ctx, "k", second))
	got, err = c.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, second, got)

	other, err := c.Load(ctx, "other-key")
	require.NoError(t, err)
	require.Equal(t, Empty(), other)

	pending, err := c.PendingPublish(ctx, "k")
	require.NoError(t, err)
	require.False(t, pending)
	require.NoError(t, c.SetPendingPublish(ctx, "k", true))
	pending, err = c.PendingPublish(ctx, "k")
	require.NoError(t, err)
	require.True(t, pending)

	require.NoError(t, c.Clear(ctx, "k"))
	got, err = c.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, Empty(), got)

	// The flag lives apart from the slot.
	pending, err = c.PendingPublish(ctx, "k")
	require.NoError(t, err)
	require.True(t, pending)
	require.NoError(t, c.SetPendingPublish(ctx, "k", false))
	pending, err = c.PendingPublish(ctx, "k")
	require.NoError(t, err)
	require.False(t, pending)

	published, err := c.PublishedReview(ctx, "k")
	require.NoError(t, err)
	require.Empty(t, published)
	require.NoError(t, c.SetPublishedReview(ctx, "k", "review-1"))
	published, err = c.PublishedReview(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "review-1", published)
	require.NoError(t, c.SetPublishedReview(ctx, "k", ""))
	published, err = c.PublishedReview(ctx, "k")
	require.NoError(t, err)
	require.Empty(t, published)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(time.Hour))
}

func TestRedisCache(t *testing.T) {
	c, _ := newRedisCache(t)
	exerciseCache(t, c)
}

func TestCorruptDraftLoadsEmpty(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryCache(time.Hour)
	mem.SaveRaw("k", []byte("{not json"))
	d, err := mem.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, Empty(), d)

	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set("draft:k", `{"metrics": "five stars"}`))
	d, err = c.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, Empty(), d)
}

func TestRedisCacheAppliesTTL(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, "k", complete()))
	require.NoError(t, c.SetPendingPublish(ctx, "k", true))
	require.NoError(t, c.SetPublishedReview(ctx, "k", "review-1"))

	mr.FastForward(2 * time.Hour)
	d, err := c.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, Empty(), d)
	pending, err := c.PendingPublish(ctx, "k")
	require.NoError(t, err)
	require.False(t, pending)
	published, err := c.PublishedReview(ctx, "k")
	require.NoError(t, err)
	require.Empty(t, published)
}

func TestMemoryCacheAppliesTTL(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "old", complete()))
	require.NoError(t, c.SetPendingPublish(ctx, "old", true))
	require.Equal(t, 2, c.Len())

	clock = clock.Add(2 * time.Hour)
	d, err := c.Load(ctx, "old")
	require.NoError(t, err)
	require.Equal(t, Empty(), d)
	pending, err := c.PendingPublish(ctx, "old")
	require.NoError(t, err)
	require.False(t, pending)

	// Expired slots of other tokens are dropped on the next write.
	require.NoError(t, c.Save(ctx, "a", complete()))
	require.NoError(t, c.SetPendingPublish(ctx, "b", true))
	clock = clock.Add(2 * time.Hour)
	require.NoError(t, c.Save(ctx, "c", complete()))
	require.Equal(t, 1, c.Len())
	c.mu.Lock()
	require.Len(t, c.entries, 1)
	c.mu.Unlock()
}

func TestRedisCacheReportsOutage(t *testing.T) {
	c, mr := newRedisCache(t)
	mr.Close()
	_, err := c.Load(context.Background(), "k")
	require.Error(t, err)
}
