package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/profiledesk/apiserver/config"
	"github.com/profiledesk/apiserver/internal/auth"
	"github.com/profiledesk/apiserver/internal/db"
	"github.com/profiledesk/apiserver/internal/services"
	"github.com/profiledesk/apiserver/internal/store"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) URL(key string) string {
	return "https://media.test/" + key
}

func (m *memoryObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type testEnv struct {
	router  http.Handler
	codec   *auth.TokenCodec
	objects *memoryObjects
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.Open(context.Background(), config.DatabaseConfig{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "handlers.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateUp(conn, db.DriverSQLite))

	repo := store.NewAccountRepository(conn, db.DriverSQLite)
	hasher := auth.NewBcryptHasher(4)
	codec, err := auth.NewTokenCodec("test-secret", time.Hour)
	require.NoError(t, err)
	resolver := auth.NewResolver(codec)
	objects := &memoryObjects{objects: make(map[string][]byte)}

	authService := services.NewAuthService(repo, hasher, codec, nil, nil)
	media := services.NewMediaService(objects, "dashboard", nil)
	profileService := services.NewProfileService(repo, hasher, media, nil, nil)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, resolver, CookieOptions{TTL: 7 * 24 * time.Hour}, nil)
	})
	router.Route("/user", func(r chi.Router) {
		ProfileRouter(r, profileService, RequireAuth(resolver), nil)
	})

	return &testEnv{router: router, codec: codec, objects: objects}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, path, field, contentType string, data []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="image.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its session cookie.
func (e *testEnv) register(t *testing.T, username, email, password string) *http.Cookie {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username":        username,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}
	t.Fatalf("response has no %s cookie", auth.CookieName)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func pngBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	return data
}
