package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/user/profile"},
		{http.MethodPut, "/user/profile"},
		{http.MethodPut, "/user/password"},
		{http.MethodPut, "/user/avatar"},
		{http.MethodPut, "/user/banner"},
	} {
		rec := env.do(t, route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
		assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"], route.path)
	}
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.do(t, http.MethodGet, "/user/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])
	assert.NotContains(t, user, "password_hash")
}

func TestGetProfileVanishedAccount(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.codec.Issue("00000000-0000-0000-0000-000000000000", "ghost@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody(t, rec)["error"])
}

func TestUpdateProfilePartial(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.do(t, http.MethodPut, "/user/profile", map[string]string{"name": "Alice", "phone": "555"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/user/profile", map[string]string{"bio": "hello"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Profile updated successfully", body["message"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "hello", user["bio"])
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "555", user["phone"])
	assert.Equal(t, "alice@x.com", user["email"])
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob", "bob@x.com", "pw123")
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.do(t, http.MethodPut, "/user/profile", map[string]string{"email": "Bob@X.com"}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already in use", decodeBody(t, rec)["error"])
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.do(t, http.MethodPut, "/user/password", map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "next",
		"confirmPassword": "next",
	}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPut, "/user/password", map[string]string{
		"currentPassword": "pw123",
		"newPassword":     "next",
		"confirmPassword": "nxt",
	}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "New passwords do not match", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPut, "/user/password", map[string]string{
		"currentPassword": "pw123",
		"newPassword":     "next",
		"confirmPassword": "next",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"identifier": "alice", "password": "next"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"identifier": "alice", "password": "pw123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.upload(t, "/user/avatar", "avatar", "image/png", pngBytes(4096), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Avatar updated successfully", body["message"])
	url, _ := body["avatar"].(string)
	assert.True(t, strings.HasPrefix(url, "https://media.test/dashboard/avatars/"), url)

	rec = env.do(t, http.MethodGet, "/user/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, url, decodeBody(t, rec)["user"].(map[string]any)["avatar"])
}

func TestUploadBanner(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.upload(t, "/user/banner", "banner", "image/png", pngBytes(6<<20), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	url, _ := decodeBody(t, rec)["banner"].(string)
	assert.Contains(t, url, "/dashboard/banners/")
}

func TestUploadRejections(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	tests := []struct {
		name        string
		path        string
		field       string
		contentType string
		data        []byte
		message     string
	}{
		{
			name:        "oversized avatar",
			path:        "/user/avatar",
			field:       "avatar",
			contentType: "image/png",
			data:        pngBytes(8 << 20),
			message:     "File size must be less than 5MB",
		},
		{
			name:        "not an image",
			path:        "/user/avatar",
			field:       "avatar",
			contentType: "text/plain",
			data:        []byte("hello"),
			message:     "File must be an image",
		},
		{
			name:        "wrong field",
			path:        "/user/banner",
			field:       "avatar",
			contentType: "image/png",
			data:        pngBytes(128),
			message:     "No file provided",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.upload(t, tc.path, tc.field, tc.contentType, tc.data, cookie)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tc.message, decodeBody(t, rec)["error"])
		})
	}
	assert.Zero(t, env.objects.count())
}

func TestUploadWithoutMultipartBody(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "alice", "alice@x.com", "pw123")

	rec := env.do(t, http.MethodPut, "/user/avatar", map[string]string{"avatar": "x"}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", decodeBody(t, rec)["error"])
}
