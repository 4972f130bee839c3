package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BasePath is the API prefix served by Backend.
const BasePath = "/api/v1"

const sessionCookie = "jwt"

type backendClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type backendUser struct {
	ID        uuid.UUID
	Name      string
	Hash      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type backendTask struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	IsDone    bool
	CreatedAt time.Time
}

// wire shapes use the server's snake_case keys
type (
	taskJSON struct {
		ID        string `json:"id"`
		UserID    string `json:"user_id"`
		Title     string `json:"title"`
		IsDone    bool   `json:"is_done"`
		CreatedAt string `json:"created_at"`
	}

	userJSON struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
)

type failure struct {
	method string
	path   string
	status int
}

type ctxKey struct{}

// Backend is an in-memory task server speaking the REST contract over
// httptest. Passwords are bcrypt hashed and sessions are HS256 tokens in a
// "jwt" cookie.
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	secret   []byte
	users    map[uuid.UUID]*backendUser
	tasks    []*backendTask
	requests []string
	failures []failure
}

// NewBackend starts a backend that is closed when t finishes.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		secret: []byte(uuid.NewString()),
		users:  make(map[uuid.UUID]*backendUser),
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the API base URL, with a trailing slash.
func (b *Backend) URL() string {
	return b.server.URL + BasePath + "/"
}

// Origin returns the server origin without the API prefix.
func (b *Backend) Origin() string {
	return b.server.URL
}

// Client returns an HTTP client for the server.
func (b *Backend) Client() *http.Client {
	return b.server.Client()
}

// AddUser creates a user and returns its ID.
func (b *Backend) AddUser(name, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	u := &backendUser{ID: uuid.New(), Name: name, Hash: hash, CreatedAt: now, UpdatedAt: now}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.ID] = u
	return u.ID.String()
}

// AddTask creates a task owned by userID and returns its ID.
func (b *Backend) AddTask(userID, title string, done bool) string {
	uid := uuid.MustParse(userID)
	t := &backendTask{ID: uuid.New(), UserID: uid, Title: title, IsDone: done, CreatedAt: time.Now().UTC()}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append(b.tasks, t)
	return t.ID.String()
}

// TaskTitles returns the titles of userID's tasks in server order.
func (b *Backend) TaskTitles(userID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, t := range b.tasks {
		if t.UserID.String() == userID {
			out = append(out, t.Title)
		}
	}
	return out
}

// Task returns a task's title and done flag.
func (b *Backend) Task(id string) (title string, done bool, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID.String() == id {
			return t.Title, t.IsDone, true
		}
	}
	return "", false, false
}

// UserName returns the current name of userID.
func (b *Backend) UserName(userID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[uuid.MustParse(userID)]; ok {
		return u.Name
	}
	return ""
}

// HasUser reports whether userID exists.
func (b *Backend) HasUser(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.users[uuid.MustParse(userID)]
	return ok
}

// Token signs a session token for userID expiring after ttl.
func (b *Backend) Token(userID string, ttl time.Duration) string {
	b.mu.Lock()
	secret := b.secret
	b.mu.Unlock()
	tok, err := signSession(secret, userID, ttl)
	if err != nil {
		panic(err)
	}
	return tok
}

// Expire invalidates every issued session token.
func (b *Backend) Expire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.secret = []byte(uuid.NewString())
}

// Fail makes requests matching method and path, relative to the API
// prefix, answer status until ClearFailures.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{method: method, path: path, status: status})
}

// ClearFailures removes all injected failures.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = nil
}

// Requests returns "METHOD /path" for every request received, in order.
// Paths are relative to the API prefix.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// CountRequests returns how many requests matched "METHOD /path".
func (b *Backend) CountRequests(req string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == req {
			n++
		}
	}
	return n
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.recordAndFail)

	r.Route(BasePath, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", b.handleSignUp)
			r.Post("/signin", b.handleSignIn)
			r.Post("/signout", b.handleSignOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(b.requireSession)

			r.Get("/tasks", b.handleListTasks)
			r.Post("/tasks", b.handleCreateTask)
			r.Put("/tasks/{taskID}", b.handleUpdateTask)
			r.Delete("/tasks/{taskID}", b.handleDeleteTask)
			r.Get("/search", b.handleSearch)

			r.Get("/users/me", b.handleMe)
			r.Patch("/users/name", b.handleUpdateName)
			r.Patch("/users/password", b.handleUpdatePassword)
			r.Delete("/users/quit", b.handleQuit)
		})
	})
	return r
}

func (b *Backend) recordAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, BasePath)

		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+path)
		status := 0
		for _, f := range b.failures {
			if f.method == r.Method && f.path == path {
				status = f.status
			}
		}
		b.mu.Unlock()

		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			writeError(w, http.StatusUnauthorized, "session cookie is required")
			return
		}

		b.mu.Lock()
		secret := b.secret
		b.mu.Unlock()

		claims := &backendClaims{}
		_, err = jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		b.mu.Lock()
		_, ok := b.users[uid]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	})
}

func userFrom(r *http.Request) uuid.UUID {
	return r.Context().Value(ctxKey{}).(uuid.UUID)
}

type credentialsBody struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (b *Backend) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	for _, u := range b.users {
		if u.Name == req.Name {
			b.mu.Unlock()
			writeError(w, http.StatusBadRequest, "user already exists")
			return
		}
	}
	b.mu.Unlock()

	id := b.AddUser(req.Name, req.Password)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (b *Backend) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	var found *backendUser
	for _, u := range b.users {
		if u.Name == req.Name {
			found = u
		}
	}
	secret := b.secret
	b.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.Hash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid user_id or password")
		return
	}

	token, err := signSession(secret, found.ID.String(), 3*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  time.Now().Add(3 * time.Hour),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (b *Backend) handleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "expired",
		Expires:  time.Now().Add(-time.Hour),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.matching(userFrom(r), ""))
}

func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.matching(userFrom(r), r.URL.Query().Get("q")))
}

func (b *Backend) matching(uid uuid.UUID, q string) []taskJSON {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []taskJSON{}
	for _, t := range b.tasks {
		if t.UserID != uid || !strings.Contains(t.Title, q) {
			continue
		}
		out = append(out, taskJSON{
			ID:        t.ID.String(),
			UserID:    t.UserID.String(),
			Title:     t.Title,
			IsDone:    t.IsDone,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func (b *Backend) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.AddTask(userFrom(r).String(), req.Title, false)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Title  string `json:"title"`
		IsDone bool   `json:"is_done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "title: cannot be blank")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID == id && t.UserID == userFrom(r) {
			t.Title = req.Title
			t.IsDone = req.IsDone
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
	}
	writeError(w, http.StatusNotFound, "task not found")
}

func (b *Backend) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == id && t.UserID == userFrom(r) {
			b.tasks = slices.Delete(b.tasks, i, i+1)
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
	}
	writeError(w, http.StatusNotFound, "task not found")
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := *b.users[userFrom(r)]
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, userJSON{
		ID:        u.ID.String(),
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	})
}

func (b *Backend) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.users[userFrom(r)]
	u.Name = req.Name
	u.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.users[userFrom(r)]
	u.Hash = hash
	u.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) handleQuit(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r)

	b.mu.Lock()
	delete(b.users, uid)
	b.tasks = slices.DeleteFunc(b.tasks, func(t *backendTask) bool { return t.UserID == uid })
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{})
}

func signSession(secret []byte, userID string, ttl time.Duration) (string, error) {
	claims := &backendClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
