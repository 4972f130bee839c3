// Package session keeps the backend's session cookie across runs and wraps
// the sign-in, sign-up and sign-out flows.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie set by /auth/signin.
const CookieName = "jwt"

// ErrNoSession is returned when no session cookie is held.
var ErrNoSession = errors.New("no session")

// Claims is the payload of the session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type storedSession struct {
	Origin  string         `json:"origin"`
	Cookies []storedCookie `json:"cookies"`
	SavedAt time.Time      `json:"saved_at"`
}

// Store persists the cookies the jar holds for origin to a file.
type Store struct {
	path   string
	jar    http.CookieJar
	origin *url.URL
}

// NewStore creates a store for the cookies jar holds for origin.
func NewStore(path string, jar http.CookieJar, origin *url.URL) *Store {
	return &Store{path: path, jar: jar, origin: origin}
}

// Path returns the session file path.
func (s *Store) Path() string { return s.path }

// Load restores saved cookies into the jar. A missing file, or one saved
// for a different origin, loads nothing.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("invalid session file: %w", err)
	}
	if stored.Origin != s.origin.String() {
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(stored.Cookies))
	for _, c := range stored.Cookies {
		cookie := &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"}
		if c.Name == CookieName {
			if claims, err := parseClaims(c.Value); err == nil && claims.ExpiresAt != nil {
				cookie.Expires = claims.ExpiresAt.Time
			}
		}
		cookies = append(cookies, cookie)
	}
	s.jar.SetCookies(s.origin, cookies)
	return nil
}

// Save writes the jar's cookies for origin with mode 0600.
func (s *Store) Save() error {
	stored := storedSession{
		Origin:  s.origin.String(),
		SavedAt: time.Now().UTC(),
	}
	for _, c := range s.jar.Cookies(s.origin) {
		stored.Cookies = append(stored.Cookies, storedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear drops the session cookie from the jar and deletes the file.
func (s *Store) Clear() error {
	s.jar.SetCookies(s.origin, []*http.Cookie{{Name: CookieName, Path: "/", MaxAge: -1}})
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Token returns the session token held by the jar.
func (s *Store) Token() (string, error) {
	for _, c := range s.jar.Cookies(s.origin) {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrNoSession
}

// Claims returns the session token's claims. The signature is not checked;
// only the server can do that.
func (s *Store) Claims() (*Claims, error) {
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	return parseClaims(token)
}

// Expiry returns when the session token expires.
func (s *Store) Expiry() (time.Time, error) {
	claims, err := s.Claims()
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("session token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

// Valid reports whether a session token is held and has not expired at now.
func (s *Store) Valid(now time.Time) bool {
	exp, err := s.Expiry()
	return err == nil && now.Before(exp)
}

func parseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}
