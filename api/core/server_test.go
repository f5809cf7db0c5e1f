package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/anoixa/mozaiek/cache/memory"
	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/database/dbtest"
	"github.com/anoixa/mozaiek/internal/access"
	"github.com/anoixa/mozaiek/internal/auth"
	"github.com/anoixa/mozaiek/internal/imaging"
	"github.com/anoixa/mozaiek/internal/imaging/imagingtest"
	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/anoixa/mozaiek/internal/repositories"
	"github.com/anoixa/mozaiek/internal/worker"
	"github.com/anoixa/mozaiek/storage"
	"github.com/anoixa/mozaiek/storage/storagetest"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router        *gin.Engine
	store         storage.Provider
	ownerToken    string
	strangerToken string
}

func testConfig() *config.Config {
	return &config.Config{
		ServerCORSOrigins:    "*",
		ServerMaxInflight:    16,
		RateLimitApiRPS:      1000,
		RateLimitApiBurst:    1000,
		RateLimitUploadRPS:   1000,
		RateLimitUploadBurst: 1000,
		RateLimitExpireTime:  time.Minute,
		UploadMaxSizeMB:      1,
	}
}

// serverOption 调整测试服务器的依赖
type serverOption func(*ServerDependencies)

func withPool(p *worker.Pool) serverOption {
	return func(d *ServerDependencies) { d.Pool = p }
}

func newTestServer(t *testing.T, store storage.Provider, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	repos := repositories.NewRepositories(db)
	owner, err := repos.Accounts.EnsureUser(context.Background(), "anna", "Anna de Vries")
	require.NoError(t, err)
	stranger, err := repos.Accounts.EnsureUser(context.Background(), "bob", "Bob")
	require.NoError(t, err)

	cacheProvider, err := memory.NewMemory(memory.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheProvider.Close() })

	cfg := testConfig()
	normalizer := imaging.NewNormalizer(imaging.NewNativeEngine(), store, imaging.WithMaxBytes(cfg.UploadMaxBytes()))
	svc := memorial.NewService(repos.Memorials, normalizer, access.NewGate(bcrypt.MinCost),
		memorial.WithCache(cacheProvider, time.Minute))
	t.Cleanup(svc.Wait)

	jwtService := auth.NewJWTService("test-secret", time.Hour)
	ownerToken, _, err := jwtService.GenerateAccessToken(owner.Username, owner.ID)
	require.NoError(t, err)
	strangerToken, _, err := jwtService.GenerateAccessToken(stranger.Username, stranger.ID)
	require.NoError(t, err)

	deps := &ServerDependencies{
		Config:    cfg,
		Database:  db,
		Cache:     cacheProvider,
		Storage:   store,
		Memorials: svc,
		JWT:       jwtService,
	}
	for _, opt := range opts {
		opt(deps)
	}
	router, cleanup := setupRouter(deps)
	t.Cleanup(cleanup)

	return &testServer{router: router, store: store, ownerToken: ownerToken, strangerToken: strangerToken}
}

func pngPhoto() []byte {
	return imagingtest.PNG(64, 48, color.RGBA{R: 200, G: 120, B: 60, A: 255})
}

// multipartBody 构造带照片的表单
func multipartBody(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="photo.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) createMemorial(t *testing.T, token string, fields map[string]string, photo []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, contentType := multipartBody(t, fields, photo)
	req := httptest.NewRequest(http.MethodPost, "/api/memorials", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func (s *testServer) mustCreateMemorial(t *testing.T, fields map[string]string) string {
	t.Helper()
	w, env := s.createMemorial(t, s.ownerToken, fields, pngPhoto())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func (s *testServer) addMemory(t *testing.T, memorialID, password, visitor string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"visitorName": visitor,
		"message":     "we miss you",
	}, pngPhoto())
	req := httptest.NewRequest(http.MethodPost, "/api/memorials/"+memorialID+"/memories", body)
	req.Header.Set("Content-Type", contentType)
	if password != "" {
		req.Header.Set("X-Password", password)
	}
	return s.do(t, req)
}

func (s *testServer) fetch(t *testing.T, memorialID, password string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/memorials/"+memorialID, nil)
	if password != "" {
		req.Header.Set("X-Password", password)
	}
	return s.do(t, req)
}

func (s *testServer) deleteAs(t *testing.T, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(t, req)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	w, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok", "storage": "ok"}, body.Checks)
}

func TestVersion(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), config.Version)
}

func TestMetrics(t *testing.T) {
	pool := worker.NewPool(2, 8)
	t.Cleanup(pool.Stop)
	s := newTestServer(t, storagetest.NewMemory(), withPool(pool))

	s.do(t, httptest.NewRequest(http.MethodGet, "/version", nil))
	s.do(t, httptest.NewRequest(http.MethodGet, "/api/memorials/missing", nil))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.JSONEq(t, "2", string(snapshot["request_count"]))
	assert.JSONEq(t, "1", string(snapshot["client_errors"]))
	assert.Contains(t, string(snapshot["worker"]), `"worker_count":2`)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	w, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("X-Request-ID", "upstream-42")
	w, _ = s.do(t, req)
	assert.Equal(t, "upstream-42", w.Header().Get("X-Request-ID"))
}

// TestPrivateMemorialLifecycle 私密纪念馆: 锁定, 解锁, 留言, 揭示比例
func TestPrivateMemorialLifecycle(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	id := s.mustCreateMemorial(t, map[string]string{
		"name":        "Oma Truus",
		"description": "Always baking",
		"isPublic":    "false",
		"password":    "appeltaart",
	})

	w, env := s.fetch(t, id, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"locked":true,"reason":"credential_required"}`, string(env.Data))

	w, env = s.fetch(t, id, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"locked":true,"reason":"credential_invalid"}`, string(env.Data))
	assert.NotContains(t, w.Body.String(), "Oma Truus")

	w, _ = s.addMemory(t, id, "", "Kees")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for i := 0; i < 10; i++ {
		w, _ = s.addMemory(t, id, "appeltaart", fmt.Sprintf("visitor %d", i))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, env = s.fetch(t, id, "appeltaart")
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Name        string  `json:"name"`
		HasPassword bool    `json:"has_password"`
		MemoryCount int     `json:"memory_count"`
		RevealRatio float64 `json:"reveal_ratio"`
		Memories    []struct {
			VisitorName string `json:"visitor_name"`
			ImageURL    string `json:"image_url"`
		} `json:"memories"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Oma Truus", view.Name)
	assert.True(t, view.HasPassword)
	assert.Equal(t, 10, view.MemoryCount)
	assert.InDelta(t, 5.0/45.0, view.RevealRatio, 1e-9)
	require.Len(t, view.Memories, 10)
	assert.Equal(t, "visitor 0", view.Memories[0].VisitorName)
	assert.True(t, strings.HasPrefix(view.Memories[0].ImageURL, "http://photos.test/memories/"))
}

func TestPublicMemorialIsOpen(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())
	id := s.mustCreateMemorial(t, map[string]string{"name": "Opa Henk", "isPublic": "true"})

	w, env := s.fetch(t, id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"reveal_ratio":0`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w, _ = s.addMemory(t, id, "", "Kees")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateMemorial_Errors(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	tests := []struct {
		name       string
		token      string
		fields     map[string]string
		photo      []byte
		wantStatus int
	}{
		{"missing token", "", map[string]string{"name": "x"}, pngPhoto(), http.StatusUnauthorized},
		{"bad token", "not-a-jwt", map[string]string{"name": "x"}, pngPhoto(), http.StatusUnauthorized},
		{"missing photo", s.ownerToken, map[string]string{"name": "x"}, nil, http.StatusBadRequest},
		{"missing name", s.ownerToken, map[string]string{"name": "  "}, pngPhoto(), http.StatusBadRequest},
		{"bad isPublic", s.ownerToken, map[string]string{"name": "x", "isPublic": "maybe"}, pngPhoto(), http.StatusBadRequest},
		{"name too long", s.ownerToken, map[string]string{"name": strings.Repeat("a", 101)}, pngPhoto(), http.StatusBadRequest},
		{"undecodable photo", s.ownerToken, map[string]string{"name": "x"}, imagingtest.CorruptPNG(), http.StatusUnprocessableEntity},
		{"not an image", s.ownerToken, map[string]string{"name": "x"}, []byte("hello world, plain text"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.createMemorial(t, tt.token, tt.fields, tt.photo)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestCreateMemorial_StorageFailure(t *testing.T) {
	store := storagetest.NewMemory()
	s := newTestServer(t, store)
	store.SetFailSave(true)

	w, _ := s.createMemorial(t, s.ownerToken, map[string]string{"name": "x"}, pngPhoto())

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), storagetest.ErrInjected.Error())
}

func TestGetMemorial_NotFound(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	w, _ := s.fetch(t, "00000000-0000-0000-0000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.addMemory(t, "00000000-0000-0000-0000-000000000000", "", "Kees")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMemorial_OwnerOnly(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())
	id := s.mustCreateMemorial(t, map[string]string{"name": "Opa Henk", "isPublic": "true"})

	w, _ := s.deleteAs(t, "/api/memorials/"+id, s.strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.deleteAs(t, "/api/memorials/"+id, s.ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.fetch(t, id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.deleteAs(t, "/api/memorials/"+id, s.ownerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMemory(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())
	id := s.mustCreateMemorial(t, map[string]string{"name": "Opa Henk", "isPublic": "true"})

	w, env := s.addMemory(t, id, "", "Kees")
	require.Equal(t, http.StatusCreated, w.Code)
	var memory struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &memory))

	w, _ = s.deleteAs(t, "/api/memories/"+memory.ID, s.strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.deleteAs(t, "/api/memories/"+memory.ID, s.ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.deleteAs(t, "/api/memories/"+memory.ID, s.ownerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.fetch(t, id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"memory_count":0`)
}

func TestListUserMemorials(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())
	s.mustCreateMemorial(t, map[string]string{"name": "first", "isPublic": "true"})
	s.mustCreateMemorial(t, map[string]string{"name": "second", "password": "secret"})

	req := httptest.NewRequest(http.MethodGet, "/api/user/memorials", nil)
	req.Header.Set("Authorization", "Bearer "+s.ownerToken)
	w, env := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Memorials []struct {
			Name        string `json:"name"`
			HasPassword bool   `json:"has_password"`
		} `json:"memorials"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Total)
	assert.NotContains(t, w.Body.String(), "password_hash")

	req = httptest.NewRequest(http.MethodGet, "/api/user/memorials", nil)
	req.Header.Set("Authorization", "Bearer "+s.strangerToken)
	w, env = s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":0`)

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/user/memorials", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t, storagetest.NewMemory())

	body, contentType := multipartBody(t, map[string]string{"name": "x"}, bytes.Repeat([]byte{0}, 3<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/memorials", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.ownerToken)
	w, _ := s.do(t, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLocalPhotosAreServed(t *testing.T) {
	local, err := storage.NewLocalStorage(storage.LocalConfig{
		Path:          t.TempDir(),
		PublicBaseURL: "http://localhost:8080" + storage.LocalRoutePrefix,
	})
	require.NoError(t, err)
	s := newTestServer(t, local)

	id := s.mustCreateMemorial(t, map[string]string{"name": "Opa Henk", "isPublic": "true"})
	_, env := s.fetch(t, id, "")
	var view struct {
		BaseImageURL string `json:"base_image_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	path := strings.TrimPrefix(view.BaseImageURL, "http://localhost:8080")
	require.True(t, strings.HasPrefix(path, "/photos/memorials/"), path)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/photos/memorials/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
