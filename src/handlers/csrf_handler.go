package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/utils"
)

const csrfCookieName = "_dealfolio_csrf"

// GetCSRFToken issues a fresh CSRF token as both a cookie and a response
// field. Clients echo it back in the X-CSRF-Token header on state-changing
// requests.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := generateRandomToken()

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // set true behind HTTPS
		MaxAge:   3600,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CSRF-Token", token)
	json.NewEncoder(w).Encode(map[string]string{
		"csrfToken": token,
	})
}

func generateRandomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Failed to generate CSRF token", "error", err)
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}

// CSRFMiddleware enforces the double-submit cookie pattern on unsafe methods.
// Safe methods (GET, HEAD, OPTIONS) pass through.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if err != nil || headerToken == "" {
				logger.L.Warn("CSRF check failed: missing token", "path", r.URL.Path, "haveHeader", headerToken != "", "cookieErr", err)
				utils.SendJSONError(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			if !tokensMatch(authKey, cookie.Value, headerToken) {
				logger.L.Warn("CSRF check failed: token mismatch", "path", r.URL.Path)
				utils.SendJSONError(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// tokensMatch compares keyed digests of both values so the comparison is
// constant time regardless of token length.
func tokensMatch(authKey []byte, cookieToken, headerToken string) bool {
	if cookieToken == "" || headerToken == "" {
		return false
	}
	return hmac.Equal(digest(authKey, cookieToken), digest(authKey, headerToken))
}

func digest(authKey []byte, value string) []byte {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(value))
	sum := mac.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
