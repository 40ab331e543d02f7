package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-upload/pkg/simpleupload/repo"
	"github.com/tendant/simple-upload/pkg/simpleupload/repo/memory"
)

func TestMemoryRepository_Presigns(t *testing.T) {
	r := memory.New()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	records := []*repo.PresignRecord{
		{ID: uuid.New(), Endpoint: "avatars", Caller: "u1", Status: repo.StatusIssued, Key: "a.png", CreatedAt: base},
		{ID: uuid.New(), Endpoint: "avatars", Caller: "u2", Status: repo.StatusRejected, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), Endpoint: "docs", Caller: "u1", Status: repo.StatusIssued, Key: "b.pdf", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		require.NoError(t, r.RecordPresign(ctx, rec))
	}
	assert.Equal(t, 3, r.Len())

	t.Run("GetPresign", func(t *testing.T) {
		got, err := r.GetPresign(ctx, records[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "a.png", got.Key)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := r.GetPresign(ctx, uuid.New())
		assert.ErrorIs(t, err, repo.ErrRecordNotFound)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		got, err := r.ListPresigns(ctx, repo.ListFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, records[2].ID, got[0].ID)
		assert.Equal(t, records[0].ID, got[2].ID)
	})

	t.Run("Filters", func(t *testing.T) {
		tests := []struct {
			name   string
			filter repo.ListFilter
			want   int
		}{
			{"endpoint", repo.ListFilter{Endpoint: "avatars"}, 2},
			{"caller", repo.ListFilter{Caller: "u1"}, 2},
			{"status", repo.ListFilter{Status: repo.StatusRejected}, 1},
			{"since", repo.ListFilter{Since: base.Add(time.Minute)}, 2},
			{"limit", repo.ListFilter{Limit: 1}, 1},
			{"offset", repo.ListFilter{Offset: 2}, 1},
			{"offset past end", repo.ListFilter{Offset: 5}, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := r.ListPresigns(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, got, tt.want)
			})
		}
	})

	t.Run("CopiesOnReadAndWrite", func(t *testing.T) {
		rec := &repo.PresignRecord{Endpoint: "x", Errors: map[string][]string{"name": {"bad"}}}
		require.NoError(t, r.RecordPresign(ctx, rec))
		assert.NotEqual(t, uuid.Nil, rec.ID)

		rec.Endpoint = "mutated"
		got, err := r.GetPresign(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "x", got.Endpoint)

		got.Errors["name"][0] = "changed"
		again, err := r.GetPresign(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "bad", again.Errors["name"][0])
	})
}
