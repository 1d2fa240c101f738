package registry

import (
	"context"
	"io"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/internal/database"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *database.Memory, *testClock) {
	t.Helper()
	clk := &testClock{t: time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)}
	store := database.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return New(store, log, opts...), store, clk
}

func TestValidate_UnknownCode(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	ctx := context.Background()

	before, err := reg.List(ctx)
	require.NoError(t, err)

	result, err := reg.Validate(ctx, "NOPE0000")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.False(t, result.Editable)
	assert.Equal(t, MessageNotFound, result.Message)

	after, err := store.Codes(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestValidate_EmptyInput(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	result, err := reg.Validate(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, MessageEmpty, result.Message)
}

func TestValidate_FirstRedemption(t *testing.T) {
	reg, store, clk := newTestRegistry(t, WithoutSeed())
	ctx := context.Background()

	_, err := reg.Add(ctx, "fresh123")
	require.NoError(t, err)

	result, err := reg.Validate(ctx, " Fresh123 ")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.True(t, result.Editable)
	assert.Equal(t, MessageSuccess, result.Message)

	code, err := store.FindCode(ctx, "FRESH123")
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.True(t, code.Used)
	assert.Equal(t, clk.t, code.FirstUsedAt)
	assert.Equal(t, clk.t.Add(24*time.Hour), code.ExpiresAt)
}

func TestValidate_RepeatKeepsFirstUse(t *testing.T) {
	reg, store, clk := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Validate(ctx, "LOVE2024")
	require.NoError(t, err)
	firstUse := clk.t

	clk.Advance(23 * time.Hour)
	result, err := reg.Validate(ctx, "love2024")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.True(t, result.Editable)

	code, err := store.FindCode(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Equal(t, firstUse, code.FirstUsedAt)
}

func TestValidate_WindowBoundary(t *testing.T) {
	reg, _, clk := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Validate(ctx, "HEART999")
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	result, err := reg.Validate(ctx, "HEART999")
	require.NoError(t, err)
	assert.True(t, result.Editable, "exactly 24h after first use is still editable")

	clk.Advance(time.Millisecond)
	result, err = reg.Validate(ctx, "HEART999")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.False(t, result.Editable)
	assert.Equal(t, MessageViewOnly, result.Message)
}

func TestExtend_ReopensExpiredCode(t *testing.T) {
	reg, _, clk := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Validate(ctx, "ROSE1234")
	require.NoError(t, err)
	clk.Advance(30 * time.Hour)

	code, err := reg.Extend(ctx, "ROSE1234", 24)
	require.NoError(t, err)
	assert.Equal(t, clk.t, code.FirstUsedAt)
	assert.Equal(t, clk.t.Add(24*time.Hour), code.ExpiresAt)

	result, err := reg.Validate(ctx, "ROSE1234")
	require.NoError(t, err)
	assert.True(t, result.Editable)
}

func TestExtend_LeavesExactlyHours(t *testing.T) {
	reg, _, clk := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Validate(ctx, "ROSE1234")
	require.NoError(t, err)
	clk.Advance(40 * time.Hour)

	code, err := reg.Extend(ctx, "ROSE1234", 3)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, Remaining(code, clk.t))
	assert.Equal(t, clk.t.Add(-21*time.Hour), code.FirstUsedAt)
}

func TestExtend_UnusedCodeIsNoop(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	ctx := context.Background()

	code, err := reg.Extend(ctx, "LOVE2024", 12)
	require.NoError(t, err)
	assert.False(t, code.Used)
	assert.True(t, code.FirstUsedAt.IsZero())

	stored, err := store.FindCode(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.False(t, stored.Used)
}

func TestExtend_Errors(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Extend(ctx, "MISSING1", 24)
	assert.ErrorIs(t, err, entity.ErrCodeNotFound)

	_, err = reg.Extend(ctx, "LOVE2024", 0)
	assert.ErrorIs(t, err, entity.ErrInvalidHours)
}

func TestDelete_RemovesCodeAndAlbum(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAlbum(ctx, &entity.Album{ID: "LOVE2024"}))

	require.NoError(t, reg.Delete(ctx, "love2024"))

	code, err := store.FindCode(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Nil(t, code)
	album, err := store.GetAlbum(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Nil(t, album)
}

func TestSeed_OnceAndInOrder(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	codes, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	for i, code := range codes {
		assert.Equal(t, DemoCodes[i], code.Code)
		assert.False(t, code.Used)
	}

	for _, code := range DemoCodes {
		require.NoError(t, reg.Delete(ctx, code))
	}
	codes, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, codes, "an emptied registry is not seeded again")
}

func TestAdd_KeepsInsertionOrderAndDuplicates(t *testing.T) {
	reg, _, _ := newTestRegistry(t, WithoutSeed())
	ctx := context.Background()

	for _, code := range []string{"b", "a", "c", "a"} {
		_, err := reg.Add(ctx, code)
		require.NoError(t, err)
	}

	codes, err := reg.List(ctx)
	require.NoError(t, err)
	got := make([]string, 0, len(codes))
	for _, code := range codes {
		got = append(got, code.Code)
	}
	assert.Equal(t, []string{"B", "A", "C", "A"}, got)

	require.NoError(t, reg.Delete(ctx, "A"))
	codes, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, codes, 2)

	_, err = reg.Add(ctx, "  ")
	assert.ErrorIs(t, err, entity.ErrEmptyCode)
}

func TestGenerate(t *testing.T) {
	reg, _, _ := newTestRegistry(t, WithoutSeed())

	code, err := reg.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, code.Code, 8)
	assert.Equal(t, entity.NormalizeCode(code.Code), code.Code)
}

func TestCheck_DoesNotRedeem(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	ctx := context.Background()

	state, err := reg.Check(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Equal(t, StageUnredeemed, state.Stage)

	code, err := store.FindCode(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.False(t, code.Used)

	_, err = reg.Check(ctx, "NOPE")
	assert.ErrorIs(t, err, entity.ErrCodeNotFound)
}
