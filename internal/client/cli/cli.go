// Package cli - командная строка fitshare поверх сервисов auth, users, posts и feed.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/auth"
	"github.com/iudanet/fitshare/internal/client/cities"
	"github.com/iudanet/fitshare/internal/client/iocli"
	"github.com/iudanet/fitshare/internal/client/posts"
	"github.com/iudanet/fitshare/internal/client/storage"
	"github.com/iudanet/fitshare/internal/client/storage/boltdb"
	"github.com/iudanet/fitshare/internal/client/storage/cookie"
	"github.com/iudanet/fitshare/internal/client/users"
	"github.com/iudanet/fitshare/internal/config"
	"github.com/iudanet/fitshare/internal/crypto"
)

// PassphraseEnv - переменная окружения с паролем локального хранилища
const PassphraseEnv = "FITSHARE_STORE_PASSPHRASE"

// ErrIncorrectDetails - сервер отклонил email или пароль
var ErrIncorrectDetails = errors.New("some of the details are incorrect")

// Passphrases - источники пароля хранилища из флагов
type Passphrases struct {
	FromFile string
	FromArgs string
}

// Cli связывает сервисы клиента с терминалом
type Cli struct {
	cfg    *config.Config
	io     iocli.IO
	logger *slog.Logger
	closer io.Closer

	store  storage.Store
	auth   *auth.Service
	users  *users.Service
	posts  *posts.Service
	types  *posts.TypesCache
	cities *cities.Cache
	tmpl   *template.Template
}

// New собирает клиент: публичный API, сервис сессии и авторизованный API для
// users и posts. opts передаются публичному клиенту (например, cookie jar).
// Справочник городов подключается, если задан cfg.CitiesAPIURL.
func New(cfg *config.Config, store storage.Store, stdio iocli.IO, logger *slog.Logger, opts ...api.Option) *Cli {
	if logger == nil {
		logger = slog.Default()
	}

	base := []api.Option{api.WithTimeout(cfg.Timeout), api.WithLogger(logger)}
	public := api.NewClient(cfg.BaseURL, append(base, opts...)...)
	authSvc := auth.NewService(public, store, logger)
	authed := public.With(authSvc.Middleware())

	// Справочник городов на своем сервере, без авторизации и cookie
	var citiesAPI api.Doer
	if cfg.CitiesAPIURL != "" {
		citiesAPI = api.NewClient(cfg.CitiesAPIURL, base...)
	}

	postsSvc := posts.NewService(authed,
		posts.WithPageSize(cfg.DefaultPageSize),
		posts.WithUploadsURL(cfg.UploadFolderURL),
		posts.WithLogger(logger),
	)

	c := &Cli{
		cfg:    cfg,
		io:     stdio,
		logger: logger,
		store:  store,
		auth:   authSvc,
		users:  users.NewService(authed, store, logger),
		posts:  postsSvc,
		types:  posts.NewTypesCache(postsSvc),
		cities: cities.NewCache(citiesAPI, logger),
	}
	c.tmpl = c.parseTemplates()
	return c
}

// Open открывает хранилище из конфигурации и собирает Cli
func Open(ctx context.Context, cfg *config.Config, stdio iocli.IO, logger *slog.Logger, passwords Passphrases) (*Cli, error) {
	switch cfg.Store {
	case config.StoreCookie:
		store, err := cookie.New(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie store: %w", err)
		}
		logger.WarnContext(ctx, "cookie store keeps the session for this process only")
		return New(cfg, store, stdio, logger, api.WithCookieJar(store.Jar())), nil

	default:
		db, err := boltdb.New(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		store, err := openSealed(ctx, db, cfg.StorePassphrase, passwords, stdio)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		c := New(cfg, store, stdio, logger)
		c.closer = db
		return c, nil
	}
}

func openSealed(ctx context.Context, db *boltdb.Storage, fromConfig string, passwords Passphrases, stdio iocli.IO) (storage.Store, error) {
	passphrase, err := getPassphrase(fromConfig, passwords, stdio)
	if err != nil {
		return nil, fmt.Errorf("failed to get store passphrase: %w", err)
	}

	salt, err := db.GetOrCreateSealSalt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get seal salt: %w", err)
	}

	key, err := crypto.DeriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	sealed, err := auth.NewSealedStore(db, key)
	if err != nil {
		return nil, err
	}
	return auth.SealedSession{SealedStore: sealed, UserStorage: db}, nil
}

// getPassphrase retrieves the store passphrase with priority:
// 1. FITSHARE_STORE_PASSPHRASE (env or store_passphrase in the config file)
// 2. File from --passphrase-file
// 3. Command-line parameter --passphrase
// 4. Interactive prompt (fallback)
func getPassphrase(fromConfig string, passwords Passphrases, stdio iocli.IO) (string, error) {
	if fromConfig != "" {
		return fromConfig, nil
	}

	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase file: %w", err)
		}
		// Убираем trailing newline/whitespace
		passphrase := strings.TrimSpace(string(content))
		if passphrase == "" {
			return "", fmt.Errorf("passphrase file is empty")
		}
		return passphrase, nil
	}

	if passwords.FromArgs != "" {
		return passwords.FromArgs, nil
	}

	passphrase, err := stdio.ReadPassword("Store passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase from stdin: %w", err)
	}
	if passphrase == "" {
		return "", crypto.ErrEmptyPassphrase
	}
	return passphrase, nil
}

// Close закрывает локальное хранилище
func (c *Cli) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

// NewLogger создает текстовый логгер в stderr с уровнем из конфигурации
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// wait дожидается результата запроса. Отмена ctx (Ctrl+C) отменяет запрос.
func wait[T any](ctx context.Context, h *api.Handle[T]) (T, error) {
	select {
	case <-h.Done():
	case <-ctx.Done():
		h.Cancel()
	}
	return h.Wait()
}

// readFile читает картинку для multipart формы. Пустой путь - нет картинки.
func readFile(path string) (*api.File, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read picture: %w", err)
	}
	return &api.File{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(content),
		Content:     content,
	}, nil
}
