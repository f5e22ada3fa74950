// Package apitest - фейковый backend fitshare для тестов клиента.
// Реализует те же эндпоинты, что и настоящий API: JWT access token,
// непрозрачный refresh token с ротацией, посты с фильтрами и пагинацией.
package apitest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// DefaultPageSize используется, если клиент не передал pageSize
const DefaultPageSize = 10

// CitiesPath - справочник населенных пунктов. Настоящий справочник живет
// на отдельном сервере, поэтому маршрут не требует авторизации.
const CitiesPath = "/cities"

type account struct {
	user     pkgapi.User
	password string
}

type failure struct {
	status int
	times  int
}

// Server - запущенный фейковый API
type Server struct {
	*httptest.Server

	logger   *slog.Logger
	issuer   tokenIssuer
	accounts map[string]*account // по email
	refresh  map[string]string   // refresh token -> user id
	posts    []*pkgapi.Post
	types    []string
	cities   []string
	calls    []Call
	failures map[string]*failure

	mu         sync.Mutex
	generation int
	now        func() time.Time
}

// Option настраивает Server
type Option func(*Server)

// WithLogger включает логирование запросов
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New запускает сервер и останавливает его по завершении теста
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		issuer:   tokenIssuer{secret: []byte(uuid.NewString()), accessTTL: 15 * time.Minute},
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
		failures: make(map[string]*failure),
		types:    []string{"running", "cycling", "swimming", "yoga", "gym"},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordCalls)
	r.Use(s.recoverPanics)
	r.Use(s.injectFailures)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/google-login", s.handleGoogleLogin)
		r.Get("/refresh", s.handleRefresh)
		r.Get("/logout", s.handleLogout)
	})

	r.Get(CitiesPath, s.handleCities)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAccess)

		r.Get("/users/me", s.handleMe)
		r.Put("/users", s.handleEditProfile)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/search/cityAndType", s.handleSearch)
			r.Get("/user/me", s.handleOwnPosts)
			r.Get("/likedPosts/{userId}", s.handleLikedPosts)
			r.Get("/training/types", s.handleTrainingTypes)
			r.Put("/addLike/{id}", s.handleLike(true))
			r.Put("/removeLike/{id}", s.handleLike(false))
			r.Get("/{id}", s.handleGetPost)
			r.Put("/{id}", s.handleEditPost)
			r.Delete("/{id}", s.handleDeletePost)
			r.Post("/{id}/comment", s.handleComment)
		})
	})

	return r
}

// SetCities задает названия в справочнике как есть, с пробелами и повторами
func (s *Server) SetCities(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cities = names
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp pkgapi.CitiesResponse
	resp.Result.Records = make([]pkgapi.CityRecord, 0, len(s.cities))
	for i, name := range s.cities {
		resp.Result.Records = append(resp.Result.Records, pkgapi.CityRecord{
			"_id":                i + 1,
			pkgapi.CityNameField: name,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SeedUser создает пользователя
func (s *Server) SeedUser(email, password, fullName, homeCity string) pkgapi.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(email, password, fullName, homeCity, "")
}

func (s *Server) createUserLocked(email, password, fullName, homeCity, image string) pkgapi.User {
	user := pkgapi.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		HomeCity:     homeCity,
		ProfileImage: image,
	}
	s.accounts[email] = &account{user: user, password: password}
	return user
}

// SeedPost добавляет пост от имени пользователя с указанным email.
// Посты отдаются от новых к старым.
func (s *Server) SeedPost(email, city, trainingType, description string) pkgapi.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[email]
	if acc == nil {
		panic("apitest: unknown user " + email)
	}
	post := &pkgapi.Post{
		ID:          uuid.NewString(),
		CreatedAt:   s.tick(),
		User:        acc.user,
		Description: description,
		City:        city,
		Type:        trainingType,
		Comments:    []pkgapi.Comment{},
		Likes:       []string{},
	}
	s.posts = append(s.posts, post)
	return *post
}

// tick возвращает строго возрастающее время создания
func (s *Server) tick() time.Time {
	t := s.now()
	if n := len(s.posts); n > 0 && !t.After(s.posts[n-1].CreatedAt) {
		t = s.posts[n-1].CreatedAt.Add(time.Millisecond)
	}
	return t
}

// IssueTokens выдает пару токенов, как при успешном входе
func (s *Server) IssueTokens(email string) pkgapi.TokenResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.issueLocked(s.accounts[email].user)
	if err != nil {
		panic(err)
	}
	return tokens
}

func (s *Server) issueLocked(user pkgapi.User) (pkgapi.TokenResponse, error) {
	access, err := s.issuer.access(user.ID, user.Email, s.generation)
	if err != nil {
		return pkgapi.TokenResponse{}, err
	}
	refresh := randomToken(32)
	s.refresh[refresh] = user.ID
	return pkgapi.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// ExpireAccessTokens делает все выданные access токены недействительными.
// Refresh токены продолжают работать.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RevokeRefreshTokens отзывает все refresh токены (сессия потеряна)
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]string)
}

// FailNext заставляет следующие times запросов method+path вернуть status
func (s *Server) FailNext(method, path string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, times: times}
}

// Calls возвращает копию журнала запросов
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo возвращает запросы к method+path
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Post возвращает текущее состояние поста
func (s *Server) Post(id string) (pkgapi.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findPostLocked(id); p != nil {
		return *p, true
	}
	return pkgapi.Post{}, false
}

func (s *Server) findPostLocked(id string) *pkgapi.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Server) userByIDLocked(id string) *account {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc
		}
	}
	return nil
}

// newestFirst возвращает посты, прошедшие фильтр, от новых к старым
func (s *Server) newestFirst(keep func(*pkgapi.Post) bool) []pkgapi.Post {
	out := make([]pkgapi.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, pkgapi.ErrorResponse{Message: message})
}
