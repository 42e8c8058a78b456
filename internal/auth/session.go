package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie carrying the token.
const CookieName = "token"

// Resolver maps an incoming request to the subject of its session token.
type Resolver struct {
	codec *TokenCodec
}

func NewResolver(codec *TokenCodec) *Resolver {
	return &Resolver{codec: codec}
}

// Resolve returns the subject id of the request's token. A missing or
// invalid token yields false and is not an error.
func (r *Resolver) Resolve(req *http.Request) (string, bool) {
	token, ok := TokenFromRequest(req)
	if !ok {
		return "", false
	}
	claims, ok := r.codec.Verify(token)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// TokenFromRequest extracts the session token. A bearer Authorization
// header wins over the cookie.
func TokenFromRequest(req *http.Request) (string, bool) {
	if req == nil {
		return "", false
	}
	if token, ok := bearerToken(req.Header.Get("Authorization")); ok {
		return token, true
	}
	cookie, err := req.Cookie(CookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// SetSessionCookie writes the HTTP-only session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie. The token itself stays
// valid until its expiry.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
