package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/impl/auth"
	"lovealbum/impl/core"
	"lovealbum/internal/album"
	"lovealbum/internal/database"
	"lovealbum/internal/registry"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "test-token-0123456789"

type envelope struct {
	Data          json.RawMessage `json:"data"`
	Success       bool            `json:"success"`
	StatusMessage string          `json:"status_message"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithLog(t, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestServerWithLog(t *testing.T, log *slog.Logger) *httptest.Server {
	t.Helper()
	store := database.NewMemory()
	reg := registry.New(store, log)
	albums := album.NewRepository(store, reg.Now, log)
	c := core.New(reg, albums, core.Config{
		PublicURL:  "https://love.example.com",
		DraftTTL:   time.Hour,
		SessionTTL: time.Hour,
	}, log)
	c.SetAuthService(auth.New([]entity.User{{Username: "admin", Token: adminToken}}))

	srv := httptest.NewServer(NewRouter(log, c))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestEntryOpensDefaultAlbum(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodPost, "/v1/entry", "", map[string]string{"code": "LOVE2024"})
	require.Equal(t, http.StatusOK, status)
	var result struct {
		Valid    bool   `json:"valid"`
		Editable bool   `json:"editable"`
		Route    string `json:"route"`
	}
	decode(t, env, &result)
	assert.True(t, result.Valid)
	assert.True(t, result.Editable)
	assert.Equal(t, "/builder/LOVE2024", result.Route)
	assert.Equal(t, registry.MessageSuccess, env.StatusMessage)

	status, env = call(t, srv, http.MethodGet, "/v1/builder/LOVE2024", "", nil)
	require.Equal(t, http.StatusOK, status)
	var a entity.Album
	decode(t, env, &a)
	assert.Equal(t, "LOVE2024", a.ID)
	assert.Equal(t, "#0d0d0d", a.BackgroundColor)
	assert.Empty(t, a.Blocks)
}

func TestEntryUnknownAndEmptyCodes(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodPost, "/v1/entry", "", map[string]string{"code": "NOPE"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, registry.MessageNotFound, env.StatusMessage)

	status, env = call(t, srv, http.MethodPost, "/v1/entry", "", map[string]string{"code": "  "})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, registry.MessageEmpty, env.StatusMessage)

	status, _ = call(t, srv, http.MethodGet, "/v1/builder/NOPE", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPublishAndView(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, http.MethodGet, "/v1/builder/HEART999", "", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodPatch, "/v1/builder/HEART999", "", map[string]string{
		"password":      "abc",
		"password_hint": "our cat",
	})
	require.Equal(t, http.StatusOK, status)

	status, env := call(t, srv, http.MethodPost, "/v1/builder/HEART999/blocks", "", map[string]string{"type": "hidden-message"})
	require.Equal(t, http.StatusCreated, status)
	var block entity.Block
	decode(t, env, &block)
	status, _ = call(t, srv, http.MethodPatch, "/v1/builder/HEART999/blocks/"+block.ID, "", map[string]string{"content": "I love you"})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/v1/albums/HEART999/sessions", "", nil)
	assert.Equal(t, http.StatusNotFound, status, "nothing saved yet")

	status, env = call(t, srv, http.MethodPost, "/v1/builder/HEART999/publish", "", nil)
	require.Equal(t, http.StatusOK, status)
	var pub struct {
		Link string `json:"link"`
	}
	decode(t, env, &pub)
	assert.Equal(t, "https://love.example.com/album/HEART999", pub.Link)

	status, env = call(t, srv, http.MethodPost, "/v1/albums/HEART999/sessions", "", nil)
	require.Equal(t, http.StatusCreated, status)
	var view struct {
		SessionID     string `json:"session_id"`
		Stage         string `json:"stage"`
		PasswordHint  string `json:"password_hint"`
		WrongPassword bool   `json:"wrong_password"`
		Blocks        []struct {
			ID       string `json:"id"`
			Revealed bool   `json:"revealed"`
			Secret   string `json:"secret"`
		} `json:"blocks"`
	}
	decode(t, env, &view)
	assert.Equal(t, "locked", view.Stage)
	assert.Equal(t, "our cat", view.PasswordHint)
	sid := view.SessionID

	status, env = call(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/unlock", "", map[string]string{"password": "ABC"})
	require.Equal(t, http.StatusOK, status)
	assert.False(t, env.Success)
	decode(t, env, &view)
	assert.Equal(t, "locked", view.Stage)
	assert.True(t, view.WrongPassword)

	status, _ = call(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/enter", "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/unlock", "", map[string]string{"password": "abc"})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, _ = call(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/enter", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/reveal/"+block.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &view)
	assert.Equal(t, "entered", view.Stage)
	require.Len(t, view.Blocks, 1)
	assert.True(t, view.Blocks[0].Revealed)
	assert.Equal(t, "I love you", view.Blocks[0].Secret)
}

func TestAdminRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodGet, "/v1/admin/codes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _ = call(t, srv, http.MethodGet, "/v1/admin/codes", "wrong-token-0000000", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = call(t, srv, http.MethodGet, "/v1/admin/codes", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var codes []struct {
		Code  string `json:"code"`
		Stage string `json:"stage"`
	}
	decode(t, env, &codes)
	require.Len(t, codes, 3)
	assert.Equal(t, "LOVE2024", codes[0].Code)
	assert.Equal(t, "unredeemed", codes[0].Stage)
}

func TestAdminCodeLifecycle(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/v1/admin/codes", adminToken, map[string]string{"code": "kiss2025"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, srv, http.MethodPost, "/v1/admin/codes/KISS2025/extend", adminToken, map[string]int{"hours": 0})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/v1/admin/codes/MISSING/extend", adminToken, map[string]int{"hours": 2})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodDelete, "/v1/admin/codes/KISS2025", adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := call(t, srv, http.MethodPost, "/v1/entry", "", map[string]string{"code": "KISS2025"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, registry.MessageNotFound, env.StatusMessage)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodGet, "/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestCounterStream(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, http.MethodGet, "/v1/builder/ROSE1234", "", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodPatch, "/v1/builder/ROSE1234", "", map[string]string{
		"relationship_start_date": "2000-01-01",
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodPost, "/v1/builder/ROSE1234/blocks", "", map[string]string{"type": "counter"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = call(t, srv, http.MethodPost, "/v1/builder/ROSE1234/save", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := call(t, srv, http.MethodPost, "/v1/albums/ROSE1234/sessions", "", nil)
	require.Equal(t, http.StatusCreated, status)
	var view struct {
		SessionID string `json:"session_id"`
	}
	decode(t, env, &view)

	status, _ = call(t, srv, http.MethodGet, "/v1/sessions/"+view.SessionID+"/counter", "", nil)
	assert.Equal(t, http.StatusForbidden, status, "the counter runs only inside the album")

	status, _ = call(t, srv, http.MethodPost, "/v1/sessions/"+view.SessionID+"/enter", "", nil)
	require.Equal(t, http.StatusOK, status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/sessions/"+view.SessionID+"/counter", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var frames []map[string]int64
	scanner := bufio.NewScanner(resp.Body)
	for len(frames) < 2 && scanner.Scan() {
		line := scanner.Text()
		if line == "" || line == "event: counter" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		require.True(t, ok, "unexpected line %q", line)
		var frame map[string]int64
		require.NoError(t, json.Unmarshal([]byte(data), &frame))
		frames = append(frames, frame)
	}
	cancel()

	require.Len(t, frames, 2)
	for _, frame := range frames {
		assert.Greater(t, frame["days"], int64(8000))
		assert.Contains(t, frame, "hours")
		assert.Contains(t, frame, "minutes")
		assert.Contains(t, frame, "seconds")
	}
}

type levelRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *levelRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *levelRecorder) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *levelRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *levelRecorder) WithGroup(string) slog.Handler { return h }

func (h *levelRecorder) atLeast(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var msgs []string
	for _, r := range h.records {
		if r.Level >= level {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

func TestClientErrorsStayBelowWarn(t *testing.T) {
	rec := &levelRecorder{}
	srv := newTestServerWithLog(t, slog.New(rec))

	status, _ := call(t, srv, http.MethodPost, "/v1/entry", "", map[string]string{"code": strings.Repeat("X", 100)})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, srv, http.MethodGet, "/v1/builder/NOPE", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, srv, http.MethodPost, "/v1/builder/LOVE2024/blocks", "", map[string]string{"type": "sticker"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, srv, http.MethodPost, "/v1/sessions/missing/enter", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/codes/MISSING/extend", adminToken, map[string]int{"hours": 2})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/codes", adminToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Empty(t, rec.atLeast(slog.LevelWarn))
	assert.NotEmpty(t, rec.atLeast(slog.LevelDebug), "failures are still logged")
}
