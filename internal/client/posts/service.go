// Package posts - операции с постами ленты
package posts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/fitshare/internal/client/api"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// AnyValue - значение фильтра города или типа тренировки "без ограничения"
const AnyValue = "all"

// DefaultPageSize - размер страницы, если он не задан конфигурацией
const DefaultPageSize = 10

// ErrPictureRequired - новый пост нельзя создать без изображения
var ErrPictureRequired = errors.New("picture is required")

// Service выполняет запросы к /posts через авторизованный клиент
type Service struct {
	client     api.Doer
	logger     *slog.Logger
	now        func() time.Time
	uploadsURL string
	pageSize   int
}

// Option настраивает Service
type Option func(*Service)

// WithPageSize задает размер страницы по умолчанию
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithUploadsURL задает адрес каталога с загруженными изображениями
func WithUploadsURL(u string) Option {
	return func(s *Service) {
		s.uploadsURL = strings.TrimRight(u, "/")
	}
}

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService создает сервис постов
func NewService(client api.Doer, opts ...Option) *Service {
	s := &Service{
		client:   client,
		logger:   slog.Default(),
		now:      time.Now,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize возвращает размер страницы по умолчанию
func (s *Service) PageSize() int {
	return s.pageSize
}

// Query - параметры поиска. Пустые City и Type означают AnyValue,
// нулевые Page и PageSize - первую страницу и размер по умолчанию.
type Query struct {
	City     string
	Type     string
	Page     int
	PageSize int
}

func (s *Service) paging(req *api.Request, page, size int) *api.Request {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = s.pageSize
	}
	return req.SetQuery("page", strconv.Itoa(page)).SetQuery("pageSize", strconv.Itoa(size))
}

func orAny(v string) string {
	if v == "" {
		return AnyValue
	}
	return v
}

func postPath(id string, suffix ...string) string {
	return "/posts/" + strings.Join(append([]string{url.PathEscape(id)}, suffix...), "/")
}

// Search загружает страницу ленты с фильтром по городу и типу тренировки
func (s *Service) Search(ctx context.Context, q Query) *api.Handle[[]pkgapi.Post] {
	req := api.NewRequest(http.MethodGet, "/posts/search/cityAndType").
		SetQuery("city", orAny(q.City)).
		SetQuery("type", orAny(q.Type))
	return api.Fetch[[]pkgapi.Post](ctx, s.client, s.paging(req, q.Page, q.PageSize))
}

// ByUser загружает страницу постов текущего пользователя
func (s *Service) ByUser(ctx context.Context, page, pageSize int) *api.Handle[[]pkgapi.Post] {
	req := api.NewRequest(http.MethodGet, "/posts/user/me")
	return api.Fetch[[]pkgapi.Post](ctx, s.client, s.paging(req, page, pageSize))
}

// LikedBy загружает посты, которые лайкнул пользователь. Сервер отдает список целиком.
func (s *Service) LikedBy(ctx context.Context, userID string) *api.Handle[[]pkgapi.Post] {
	req := api.NewRequest(http.MethodGet, "/posts/likedPosts/"+url.PathEscape(userID))
	return api.Fetch[[]pkgapi.Post](ctx, s.client, req)
}

// Get загружает один пост
func (s *Service) Get(ctx context.Context, id string) *api.Handle[*pkgapi.Post] {
	return api.Fetch[*pkgapi.Post](ctx, s.client, api.NewRequest(http.MethodGet, postPath(id)))
}

// PostForm - поля формы поста. nil поля не отправляются.
type PostForm struct {
	Description *string
	City        *string
	Type        *string
	Picture     *api.File
}

func (f PostForm) form() api.Form {
	return api.Form{}.
		Add("description", f.Description).
		Add("city", f.City).
		Add("type", f.Type).
		Add(api.PictureField, f.Picture)
}

// Upload создает пост. Изображение обязательно.
func (s *Service) Upload(ctx context.Context, f PostForm) *api.Handle[*pkgapi.Post] {
	if f.Picture == nil {
		return api.Resolved[*pkgapi.Post](nil, ErrPictureRequired)
	}
	req := api.NewMultipartRequest(http.MethodPost, "/posts", f.form())
	return api.Map(api.Fetch[*pkgapi.Post](ctx, s.client, req), func(p *pkgapi.Post) (*pkgapi.Post, error) {
		s.logger.InfoContext(ctx, "post uploaded", "post_id", p.ID)
		return p, nil
	})
}

// Edit изменяет пост. Изображение заменяется, только если передано.
func (s *Service) Edit(ctx context.Context, id string, f PostForm) *api.Handle[*pkgapi.Post] {
	req := api.NewMultipartRequest(http.MethodPut, postPath(id), f.form())
	return api.Fetch[*pkgapi.Post](ctx, s.client, req)
}

// Delete удаляет пост
func (s *Service) Delete(ctx context.Context, id string) *api.Handle[struct{}] {
	return api.Go(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := s.client.Do(ctx, api.NewRequest(http.MethodDelete, postPath(id)))
		if err == nil {
			s.logger.InfoContext(ctx, "post deleted", "post_id", id)
		}
		return struct{}{}, err
	})
}

// AddLike отмечает пост как понравившийся пользователю userID
func (s *Service) AddLike(ctx context.Context, postID, userID string) *api.Handle[*pkgapi.Post] {
	return s.like(ctx, "/posts/addLike/", postID, userID)
}

// RemoveLike снимает отметку
func (s *Service) RemoveLike(ctx context.Context, postID, userID string) *api.Handle[*pkgapi.Post] {
	return s.like(ctx, "/posts/removeLike/", postID, userID)
}

func (s *Service) like(ctx context.Context, prefix, postID, userID string) *api.Handle[*pkgapi.Post] {
	req := api.NewRequest(http.MethodPut, prefix+url.PathEscape(postID)).SetQuery("userId", userID)
	return api.Fetch[*pkgapi.Post](ctx, s.client, req)
}

// AddComment добавляет комментарий и возвращает все комментарии поста
func (s *Service) AddComment(ctx context.Context, postID, body string) *api.Handle[[]pkgapi.Comment] {
	req := api.NewJSONRequest(http.MethodPost, postPath(postID, "comment"), pkgapi.CommentRequest{
		Date: s.now().UTC(),
		Body: body,
	})
	return api.Fetch[[]pkgapi.Comment](ctx, s.client, req)
}

// TrainingTypes загружает список типов тренировок
func (s *Service) TrainingTypes(ctx context.Context) *api.Handle[[]string] {
	return api.Fetch[[]string](ctx, s.client, api.NewRequest(http.MethodGet, "/posts/training/types"))
}

// ImageURL строит адрес изображения поста или аватара.
// Абсолютные адреса возвращаются без изменений.
func (s *Service) ImageURL(image string) string {
	if image == "" {
		return ""
	}
	if u, err := url.Parse(image); err == nil && u.IsAbs() {
		return image
	}
	if s.uploadsURL == "" {
		return image
	}
	return s.uploadsURL + "/" + strings.TrimLeft(image, "/")
}
