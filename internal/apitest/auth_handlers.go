package apitest

import (
	"encoding/json"
	"net/http"
	"strings"

	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// GoogleTokenPrefix - фейковый Google ID token имеет вид "google:<email>"
const GoogleTokenPrefix = "google:"

// maxFormMemory - лимит памяти для multipart форм
const maxFormMemory = 8 << 20

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	image := ""
	if _, header, err := r.FormFile("picture"); err == nil {
		image = "uploads/" + header.Filename
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	user := s.createUserLocked(email, password, r.FormValue("fullName"), r.FormValue("homeCity"), image)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[req.Email]
	if acc == nil || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.respondTokensLocked(w, acc.user)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email, ok := strings.CutPrefix(req.Token, GoogleTokenPrefix)
	if !ok || email == "" {
		writeError(w, http.StatusUnauthorized, "invalid google token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[email]
	if acc == nil {
		// Первый вход через Google создает пользователя
		user := s.createUserLocked(email, "", email, "", "")
		acc = s.accounts[user.Email]
	}
	s.respondTokensLocked(w, acc.user)
}

// handleRefresh меняет refresh token на новую пару; старый refresh token сгорает
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refresh[token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	delete(s.refresh, token)

	acc := s.userByIDLocked(userID)
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	s.respondTokensLocked(w, acc.user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refresh[token]; !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	delete(s.refresh, token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondTokensLocked(w http.ResponseWriter, user pkgapi.User) {
	tokens, err := s.issueLocked(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
