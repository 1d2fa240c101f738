package database

import (
	"context"
	"lovealbum/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CodesAreCopied(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)

	code := entity.NewAccessCode("LOVE2024", now)
	require.NoError(t, m.InsertCode(ctx, code))
	code.Used = true

	found, err := m.FindCode(ctx, "LOVE2024")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.Used)

	found.Redeem(now)
	require.NoError(t, m.UpdateCode(ctx, found))
	found, err = m.FindCode(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.True(t, found.Redeemed())

	missing, err := m.FindCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, m.UpdateCode(ctx, entity.NewAccessCode("NOPE", now)), entity.ErrCodeNotFound)
}

func TestMemory_DuplicatesResolveToFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	first := entity.NewAccessCode("DUP", now)
	second := entity.NewAccessCode("DUP", now.Add(time.Hour))
	require.NoError(t, m.InsertCode(ctx, first))
	require.NoError(t, m.InsertCode(ctx, entity.NewAccessCode("OTHER", now)))
	require.NoError(t, m.InsertCode(ctx, second))

	found, err := m.FindCode(ctx, "DUP")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, found.CreatedAt)

	require.NoError(t, m.DeleteCode(ctx, "DUP"))
	codes, err := m.Codes(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "OTHER", codes[0].Code)
}

func TestMemory_Albums(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	album := &entity.Album{ID: "LOVE2024", Blocks: []*entity.Block{{ID: "b1", Type: entity.BlockText}}}
	require.NoError(t, m.SaveAlbum(ctx, album))
	album.Blocks[0].Content = "changed"

	got, err := m.GetAlbum(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Empty(t, got.Blocks[0].Content)

	require.NoError(t, m.DeleteAlbum(ctx, "LOVE2024"))
	got, err = m.GetAlbum(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Nil(t, got)
}
