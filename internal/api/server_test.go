package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/store"
	storemem "github.com/JakeFAU/docs-translator/internal/store/memory"
	"github.com/JakeFAU/docs-translator/internal/vector"
	vectormem "github.com/JakeFAU/docs-translator/internal/vector/memory"
)

var ts = time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	return args.Get(0).([]float32), args.Error(1)
}

type fixture struct {
	store    *storemem.Store
	vectors  *vectormem.Store
	embedder *mockEmbedder
	project  store.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: storemem.New(), vectors: vectormem.New(), embedder: &mockEmbedder{}}

	project, err := f.store.GetOrCreateProject(ctx, store.NewProject("proj-1", "https://docs.example.com", ts))
	require.NoError(t, err)
	f.project = project
	for i, u := range []string{"https://docs.example.com/guide/b", "https://docs.example.com/guide/a"} {
		row, err := store.NewFileTreeEntry(fmt.Sprintf("ft-%d", i), project.ID, u, "", i, ts)
		require.NoError(t, err)
		require.NoError(t, f.store.UpsertFileTree(ctx, row))
	}
	require.NoError(t, f.store.UpsertTranslation(ctx, store.TranslationEntry{
		ID: "tr-1", ResourceID: "https://docs.example.com/guide/a", Title: "A", Summary: "s",
		Text: "テキスト", OriginalText: "text", Language: "ja", Timestamp: ts,
	}))
	require.NoError(t, f.vectors.Upsert(ctx, []vector.Point{
		{ID: "v1", ProjectID: project.ID, ResourceID: "https://docs.example.com/guide/a", Vector: []float32{1, 0}, OriginalText: "install"},
		{ID: "v2", ProjectID: project.ID, ResourceID: "https://docs.example.com/guide/b", Vector: []float32{0, 1}, OriginalText: "configure"},
	}))
	return f
}

func (f *fixture) server(opts Options) *Server {
	return NewServer(f.store, f.vectors, f.embedder, opts, zap.NewNop())
}

func do(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_ListProjects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := do(t, f.server(Options{}).Handler(), "/v1/projects")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct{ Projects []store.Project }](t, rec)
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "proj-1", body.Projects[0].ID)
}

func TestServer_GetProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.server(Options{}).Handler()

	rec := do(t, h, "/v1/projects/proj-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://docs.example.com")

	rec = do(t, h, "/v1/projects/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListFilesInSortOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := do(t, f.server(Options{}).Handler(), "/v1/projects/proj-1/files")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct{ Files []store.FileTreeEntry }](t, rec)
	require.Len(t, body.Files, 2)
	assert.Equal(t, "https://docs.example.com/guide/b", body.Files[0].ResourceID)
	assert.Equal(t, "https://docs.example.com/guide/a", body.Files[1].ResourceID)
	require.NotNil(t, body.Files[0].Parent)
	assert.Equal(t, "/guide", *body.Files[0].Parent)
}

func TestServer_SearchEmbedsQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.embedder.On("Embed", mock.Anything, "how to install").Return([]float32{0.9, 0.1}, nil).Once()
	rec := do(t, f.server(Options{}).Handler(), "/v1/projects/proj-1/search?q=how+to+install&k=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct{ Results []vector.SearchResult }](t, rec)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "install", body.Results[0].OriginalText)
	f.embedder.AssertExpectations(t)
}

func TestServer_SearchValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.server(Options{}).Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/projects/proj-1/search").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/projects/proj-1/search?q=x&k=zero").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "/v1/projects/nope/search?q=x").Code)
	f.embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestServer_SearchEmbedFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.embedder.On("Embed", mock.Anything, "x").Return([]float32(nil), errors.New("quota"))
	rec := do(t, f.server(Options{}).Handler(), "/v1/projects/proj-1/search?q=x")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_SearchUnavailableWithoutVectors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := NewServer(f.store, nil, nil, Options{}, nil)
	rec := do(t, s.Handler(), "/v1/projects/proj-1/search?q=x")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_GetTranslation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.server(Options{}).Handler()

	rec := do(t, h, "/v1/translations?resource_id=https://docs.example.com/guide/a")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct{ Translation store.TranslationEntry }](t, rec)
	assert.Equal(t, "テキスト", body.Translation.Text)

	assert.Equal(t, http.StatusNotFound, do(t, h, "/v1/translations?resource_id=https://docs.example.com/guide/a&language=fr").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/translations?resource_id=x&language=xx").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/translations").Code)
}

func TestServer_APIKeyMiddleware(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.server(Options{APIKey: "secret"}).Handler()

	require.Equal(t, http.StatusForbidden, do(t, h, "/v1/projects").Code)
	require.Equal(t, http.StatusOK, do(t, h, "/v1/projects", "X-API-Key", "secret").Code)
	require.Equal(t, http.StatusOK, do(t, h, "/v1/projects?api_key=secret").Code)
	require.Equal(t, http.StatusOK, do(t, h, "/healthz").Code)
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ok := f.server(Options{ReadyChecks: []ReadyCheck{func(context.Context) error { return nil }}})
	require.Equal(t, http.StatusOK, do(t, ok.Handler(), "/readyz").Code)

	down := f.server(Options{ReadyChecks: []ReadyCheck{func(context.Context) error { return errors.New("db down") }}})
	require.Equal(t, http.StatusServiceUnavailable, do(t, down.Handler(), "/readyz").Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.server(Options{}).Handler()
	_ = do(t, h, "/healthz")

	rec := do(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	h := newFixture(t).server(Options{}).Handler()
	require.NotEmpty(t, do(t, h, "/healthz").Header().Get("X-Request-ID"))
	require.Equal(t, "req-7", do(t, h, "/healthz", "X-Request-ID", "req-7").Header().Get("X-Request-ID"))
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.EqualError(t, err, "hijacker not supported")

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	require.NoError(t, err)
	require.NotNil(t, buf)
	require.NoError(t, conn.Close())
	require.NoError(t, h.CloseClient())
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client != nil {
		if err := h.client.Close(); err != nil {
			return fmt.Errorf("close hijacker client: %w", err)
		}
	}
	return nil
}
