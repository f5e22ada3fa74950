package apitest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// anyValue - значение фильтра "без ограничения"
const anyValue = "all"

func (s *Server) currentLocked(r *http.Request) *account {
	claims := claimsFrom(r.Context())
	if claims == nil {
		return nil
	}
	return s.userByIDLocked(claims.Subject)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.currentLocked(r)
	if acc == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.currentLocked(r)
	if acc == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	form := r.MultipartForm.Value
	if v, ok := form["fullName"]; ok {
		acc.user.FullName = v[0]
	}
	if v, ok := form["homeCity"]; ok {
		acc.user.HomeCity = v[0]
	}
	if v, ok := form["email"]; ok && v[0] != acc.user.Email {
		delete(s.accounts, acc.user.Email)
		acc.user.Email = v[0]
		s.accounts[acc.user.Email] = acc
	}
	if _, header, err := r.FormFile("picture"); err == nil {
		acc.user.ProfileImage = "uploads/" + header.Filename
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func paging(r *http.Request) (page, size int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || size < 1 {
		size = DefaultPageSize
	}
	return page, size
}

func pageOf(posts []pkgapi.Post, page, size int) []pkgapi.Post {
	start := (page - 1) * size
	if start >= len(posts) {
		return []pkgapi.Post{}
	}
	end := min(start+size, len(posts))
	return posts[start:end]
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	trainingType := r.URL.Query().Get("type")
	page, size := paging(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.newestFirst(func(p *pkgapi.Post) bool {
		return (city == "" || city == anyValue || p.City == city) &&
			(trainingType == "" || trainingType == anyValue || p.Type == trainingType)
	})
	writeJSON(w, http.StatusOK, pageOf(posts, page, size))
}

func (s *Server) handleOwnPosts(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.currentLocked(r)
	if acc == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	posts := s.newestFirst(func(p *pkgapi.Post) bool {
		return p.User.ID == acc.user.ID
	})
	writeJSON(w, http.StatusOK, pageOf(posts, page, size))
}

// handleLikedPosts, как и настоящий сервер, отдает весь список без пагинации
func (s *Server) handleLikedPosts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.newestFirst(func(p *pkgapi.Post) bool {
		return slices.Contains(p.Likes, userID)
	})
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleTrainingTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.types)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	_, header, err := r.FormFile("picture")
	if err != nil {
		writeError(w, http.StatusBadRequest, "picture is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.currentLocked(r)
	if acc == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	post := &pkgapi.Post{
		ID:          uuid.NewString(),
		CreatedAt:   s.tick(),
		User:        acc.user,
		Description: r.FormValue("description"),
		City:        r.FormValue("city"),
		Type:        r.FormValue("type"),
		Image:       "uploads/" + header.Filename,
		Comments:    []pkgapi.Comment{},
		Likes:       []string{},
	}
	s.posts = append(s.posts, post)
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) ownPostLocked(w http.ResponseWriter, r *http.Request) *pkgapi.Post {
	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return nil
	}
	if acc := s.currentLocked(r); acc == nil || acc.user.ID != post.User.ID {
		writeError(w, http.StatusForbidden, "not the author of the post")
		return nil
	}
	return post
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.ownPostLocked(w, r)
	if post == nil {
		return
	}
	form := r.MultipartForm.Value
	if v, ok := form["description"]; ok {
		post.Description = v[0]
	}
	if v, ok := form["city"]; ok {
		post.City = v[0]
	}
	if v, ok := form["type"]; ok {
		post.Type = v[0]
	}
	if _, header, err := r.FormFile("picture"); err == nil {
		post.Image = "uploads/" + header.Filename
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.ownPostLocked(w, r)
	if post == nil {
		return
	}
	s.posts = slices.DeleteFunc(s.posts, func(p *pkgapi.Post) bool { return p.ID == post.ID })
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

func (s *Server) handleLike(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		post := s.findPostLocked(chi.URLParam(r, "id"))
		if post == nil {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		liked := slices.Contains(post.Likes, userID)
		switch {
		case add && !liked:
			post.Likes = append(post.Likes, userID)
		case !add && liked:
			post.Likes = slices.DeleteFunc(post.Likes, func(id string) bool { return id == userID })
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		writeError(w, http.StatusBadRequest, "comment body is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	acc := s.currentLocked(r)
	if acc == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	post.Comments = append(post.Comments, pkgapi.Comment{Date: req.Date, User: acc.user, Body: req.Body})
	writeJSON(w, http.StatusCreated, post.Comments)
}
