package core

import (
	"context"
	"io"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/impl/auth"
	"lovealbum/internal/album"
	"lovealbum/internal/database"
	"lovealbum/internal/registry"
	"lovealbum/internal/viewer"
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

func newTestCore(t *testing.T) (*Core, *testClock) {
	t.Helper()
	clk := &testClock{t: time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemory()
	reg := registry.New(store, log, registry.WithClock(clk.Now))
	albums := album.NewRepository(store, reg.Now, log)
	c := New(reg, albums, Config{
		PublicURL:  "https://love.example.com/",
		DraftTTL:   48 * time.Hour,
		SessionTTL: 48 * time.Hour,
	}, log)
	c.SetAuthService(auth.New([]entity.User{{Username: "owner", Token: "0123456789abcdef"}}))
	return c, clk
}

func strPtr(s string) *string {
	return &s
}

func TestEntry(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()

	res, err := c.Entry(ctx, "love2024")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Editable)
	assert.Equal(t, "LOVE2024", res.Code)
	assert.Equal(t, "/builder/LOVE2024", res.Route)

	res, err = c.Entry(ctx, "wrong")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, registry.MessageNotFound, res.Message)
	assert.Empty(t, res.Route)
}

func TestEntry_DelayHonoursContext(t *testing.T) {
	c, _ := newTestCore(t)
	c.entryDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Entry(ctx, "LOVE2024")
	assert.ErrorIs(t, err, context.Canceled)

	state, err := c.registry.Check(context.Background(), "LOVE2024")
	require.NoError(t, err)
	assert.Equal(t, registry.StageUnredeemed, state.Stage, "a cancelled entry does not redeem")
}

func TestBuilderFlow(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()

	a, err := c.OpenBuilder(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Equal(t, "#0d0d0d", a.BackgroundColor)
	assert.Empty(t, a.Blocks)

	_, err = c.UpdateAlbum(ctx, "LOVE2024", &entity.AlbumPatch{SenderName: strPtr("Sam"), Password: strPtr("abc")})
	require.NoError(t, err)
	block, err := c.AddBlock(ctx, "LOVE2024", entity.BlockHiddenMessage)
	require.NoError(t, err)
	_, err = c.UpdateBlock(ctx, "LOVE2024", block.ID, &entity.BlockPatch{Content: strPtr("surprise")})
	require.NoError(t, err)
	dup, err := c.DuplicateBlock(ctx, "LOVE2024", block.ID)
	require.NoError(t, err)
	require.NoError(t, c.RemoveBlock(ctx, "LOVE2024", dup.ID))

	assert.ErrorIs(t, c.RemoveBlock(ctx, "LOVE2024", "block_missing"), entity.ErrBlockNotFound)
	_, err = c.UpdateBlock(ctx, "LOVE2024", "block_missing", &entity.BlockPatch{})
	assert.ErrorIs(t, err, entity.ErrBlockNotFound)

	stored, err := c.albums.Get(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Nil(t, stored, "edits are not saved automatically")

	pub, err := c.PublishAlbum(ctx, "love2024")
	require.NoError(t, err)
	assert.Equal(t, "https://love.example.com/album/LOVE2024", pub.Link)

	stored, err = c.albums.Get(ctx, "LOVE2024")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Sam", stored.SenderName)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, "surprise", stored.Blocks[0].Content)

	reopened, err := c.OpenBuilder(ctx, "LOVE2024")
	require.NoError(t, err)
	assert.Equal(t, stored, reopened)
}

func TestBuilder_WithoutDraft(t *testing.T) {
	c, _ := newTestCore(t)

	_, err := c.AddBlock(context.Background(), "LOVE2024", entity.BlockText)
	assert.ErrorIs(t, err, entity.ErrDraftNotFound)
	_, err = c.Draft("LOVE2024")
	assert.ErrorIs(t, err, entity.ErrDraftNotFound)
}

func TestOpenBuilder_RejectsInvalidAndViewOnly(t *testing.T) {
	c, clk := newTestCore(t)
	ctx := context.Background()

	_, err := c.OpenBuilder(ctx, "NOPE")
	assert.ErrorIs(t, err, entity.ErrCodeNotFound)

	_, err = c.OpenBuilder(ctx, "HEART999")
	require.NoError(t, err)
	clk.t = clk.t.Add(25 * time.Hour)

	_, err = c.OpenBuilder(ctx, "HEART999")
	assert.ErrorIs(t, err, entity.ErrEditWindowExpired)
}

func TestSave_AfterWindowClosed(t *testing.T) {
	c, clk := newTestCore(t)
	ctx := context.Background()

	_, err := c.OpenBuilder(ctx, "ROSE1234")
	require.NoError(t, err)
	clk.t = clk.t.Add(30 * time.Minute)
	_, err = c.SaveAlbum(ctx, "ROSE1234")
	require.NoError(t, err)

	clk.t = clk.t.Add(24 * time.Hour)
	_, err = c.SaveAlbum(ctx, "ROSE1234")
	assert.ErrorIs(t, err, entity.ErrEditWindowExpired)
}

func TestDeleteCode_DiscardsDraftAndAlbum(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()

	_, err := c.OpenBuilder(ctx, "LOVE2024")
	require.NoError(t, err)
	_, err = c.SaveAlbum(ctx, "LOVE2024")
	require.NoError(t, err)

	require.NoError(t, c.DeleteCode(ctx, "love2024"))

	_, err = c.Draft("LOVE2024")
	assert.ErrorIs(t, err, entity.ErrDraftNotFound)
	_, err = c.OpenViewer(ctx, "LOVE2024")
	assert.ErrorIs(t, err, entity.ErrAlbumNotFound)
}

func TestViewerFlow(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()

	_, err := c.OpenBuilder(ctx, "LOVE2024")
	require.NoError(t, err)
	_, err = c.UpdateAlbum(ctx, "LOVE2024", &entity.AlbumPatch{
		Password:              strPtr("abc"),
		RelationshipStartDate: strPtr("2024-02-13T10:58:59Z"),
	})
	require.NoError(t, err)
	secret, err := c.AddBlock(ctx, "LOVE2024", entity.BlockHiddenMessage)
	require.NoError(t, err)
	_, err = c.AddBlock(ctx, "LOVE2024", entity.BlockCounter)
	require.NoError(t, err)
	_, err = c.SaveAlbum(ctx, "LOVE2024")
	require.NoError(t, err)

	view, err := c.OpenViewer(ctx, "love2024")
	require.NoError(t, err)
	assert.Equal(t, viewer.StageLocked, view.Stage)
	sid := view.SessionID

	view, err = c.Unlock(sid, "ABC")
	assert.ErrorIs(t, err, entity.ErrPasswordMismatch)
	require.NotNil(t, view)
	assert.True(t, view.WrongPassword)

	_, err = c.Enter(sid)
	assert.ErrorIs(t, err, entity.ErrLocked)

	view, err = c.Unlock(sid, "abc")
	require.NoError(t, err)
	assert.Equal(t, viewer.StageUnlocked, view.Stage)

	view, err = c.Enter(sid)
	require.NoError(t, err)
	require.Len(t, view.Blocks, 2)
	assert.Equal(t, viewer.Elapsed{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}, *view.Blocks[1].Counter)

	view, err = c.Reveal(sid, secret.ID)
	require.NoError(t, err)
	assert.True(t, view.Blocks[0].Revealed)

	got, err := c.SessionView(sid)
	require.NoError(t, err)
	assert.Equal(t, view, got)

	_, err = c.SessionView("missing")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestWatchCounter(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()

	_, err := c.OpenBuilder(ctx, "LOVE2024")
	require.NoError(t, err)
	_, err = c.UpdateAlbum(ctx, "LOVE2024", &entity.AlbumPatch{RelationshipStartDate: strPtr("2024-02-14")})
	require.NoError(t, err)
	_, err = c.SaveAlbum(ctx, "LOVE2024")
	require.NoError(t, err)
	view, err := c.OpenViewer(ctx, "LOVE2024")
	require.NoError(t, err)

	assert.ErrorIs(t, c.WatchCounter(ctx, view.SessionID, func(viewer.Elapsed) {}), entity.ErrNotEntered)
	_, err = c.Enter(view.SessionID)
	require.NoError(t, err)

	watchCtx, cancel := context.WithCancel(ctx)
	var got []viewer.Elapsed
	err = c.WatchCounter(watchCtx, view.SessionID, func(e viewer.Elapsed) {
		got = append(got, e)
		cancel()
	})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, viewer.Elapsed{Hours: 12}, got[0])
}

func TestAdminCodes(t *testing.T) {
	c, clk := newTestCore(t)
	ctx := context.Background()

	added, err := c.AddCode(ctx, "new1")
	require.NoError(t, err)
	assert.Equal(t, "NEW1", added.Code)
	assert.Equal(t, "unredeemed", added.Stage)
	assert.Equal(t, "https://love.example.com/album/NEW1", added.Link)

	_, err = c.OpenBuilder(ctx, "LOVE2024")
	require.NoError(t, err)
	clk.t = clk.t.Add(90 * time.Minute)
	_, err = c.OpenBuilder(ctx, "HEART999")
	require.NoError(t, err)
	clk.t = clk.t.Add(23 * time.Hour)

	list, err := c.ListCodes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	byCode := map[string]CodeStatus{}
	for _, s := range list {
		byCode[s.Code] = s
	}
	assert.Equal(t, "view_only", byCode["LOVE2024"].Stage)
	assert.Equal(t, "expired", byCode["LOVE2024"].Remaining)
	assert.Equal(t, "editable", byCode["HEART999"].Stage)
	assert.Equal(t, "1h 00m", byCode["HEART999"].Remaining)
	assert.Equal(t, "unused", byCode["ROSE1234"].Remaining)

	extended, err := c.ExtendCode(ctx, "LOVE2024", 2)
	require.NoError(t, err)
	assert.Equal(t, "editable", extended.Stage)
	assert.Equal(t, "2h 00m", extended.Remaining)

	generated, err := c.GenerateCode(ctx)
	require.NoError(t, err)
	assert.Len(t, generated.Code, 8)
}

func TestAuthenticateByToken(t *testing.T) {
	c, _ := newTestCore(t)

	user, err := c.AuthenticateByToken("0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, "owner", user.Username)

	_, err = c.AuthenticateByToken("nope")
	assert.Error(t, err)
}
