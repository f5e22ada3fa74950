// Package feed - контроллер бесконечной ленты с фильтрами.
//
// Controller загружает страницы через Fetcher: первая страница заменяет список,
// следующие дописываются в конец. Каждая загрузка помечена эпохой фильтров и
// номером страницы; ответы прошлых эпох и отмененные запросы отбрасываются.
// Одновременно выполняется не больше одной загрузки.
package feed

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/iudanet/fitshare/internal/client/api"
)

// Filters - фильтры ленты
type Filters struct {
	City     string
	Type     string
	MineOnly bool
}

// State - снимок состояния ленты
type State[T any] struct {
	Err       error
	Filters   Filters
	Items     []T
	Page      int
	Loading   bool
	Exhausted bool
}

// Fetcher запускает загрузку страницы page (с 1). Не должен блокироваться:
// результат ожидается через Handle.
type Fetcher[T any] func(ctx context.Context, f Filters, page int) *api.Handle[[]T]

// Viewport - прокручиваемая область, в которой показана лента.
// ScrollToTop вызывается под блокировкой контроллера до запроса первой
// страницы и не должен синхронно вызывать методы Controller.
type Viewport interface {
	ScrollToTop()
}

// Option настраивает Controller
type Option func(*options)

type options struct {
	logger   *slog.Logger
	viewport Viewport
}

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithViewport подключает область прокрутки
func WithViewport(v Viewport) Option {
	return func(o *options) {
		o.viewport = v
	}
}

type loadMode int

const (
	modeLoad loadMode = iota
	// modeRefresh заменяет список, только если пришли элементы
	modeRefresh
)

type ticket struct {
	epoch uint64
	page  int
	mode  loadMode
}

// Controller управляет состоянием ленты от Mount до Close
type Controller[T any] struct {
	fetch    Fetcher[T]
	logger   *slog.Logger
	viewport Viewport

	ctx    context.Context
	cancel context.CancelFunc

	state    State[T]
	inflight *api.Handle[[]T]
	subs     map[int]func(State[T])
	idle     chan struct{} // закрывается, когда active падает до нуля
	epoch    uint64
	nextSub  int
	version  uint64
	notified uint64
	active   int

	mu       sync.Mutex
	notifyMu sync.Mutex
	armed    bool
	mounted  bool
	closed   bool
}

// New создает контроллер. Загрузка начинается с Mount.
func New[T any](fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller[T]{
		fetch:    fetch,
		logger:   o.logger,
		viewport: o.viewport,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]func(State[T])),
		state:    State[T]{Page: 1},
	}
}

// Mount запускает загрузку первой страницы. Повторный вызов ничего не делает.
func (c *Controller[T]) Mount(f Filters) {
	c.mu.Lock()
	if c.closed || c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.state = State[T]{Filters: f, Page: 1}
	c.startLocked(1, modeLoad)
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
}

// SetFilters сбрасывает ленту: очищает список, прокручивает наверх,
// отменяет текущую загрузку и загружает первую страницу с новыми фильтрами.
// Те же фильтры ничего не меняют.
func (c *Controller[T]) SetFilters(f Filters) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.mounted {
		c.mu.Unlock()
		c.Mount(f)
		return
	}
	if f == c.state.Filters {
		c.mu.Unlock()
		return
	}

	c.cancelLocked()
	c.state = State[T]{Filters: f, Page: 1}
	c.scrollToTopLocked()
	c.startLocked(1, modeLoad)
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
}

// Refresh перезагружает первую страницу после изменения данных (лайк, удаление).
// Список заменяется, только если страница не пустая.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if c.closed || !c.mounted {
		c.mu.Unlock()
		return
	}

	c.cancelLocked()
	c.state.Page = 1
	c.state.Err = nil
	c.state.Exhausted = false
	c.scrollToTopLocked()
	c.startLocked(1, modeRefresh)
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
}

// Remove убирает из списка элементы, для которых match возвращает true,
// без перезагрузки страниц. Возвращает число удаленных элементов.
func (c *Controller[T]) Remove(match func(T) bool) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	before := len(c.state.Items)
	c.state.Items = slices.DeleteFunc(c.state.Items, match)
	removed := before - len(c.state.Items)
	if removed == 0 {
		c.mu.Unlock()
		return 0
	}
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
	return removed
}

// Replace подставляет item вместо элементов, для которых match возвращает true.
// Возвращает число замененных элементов.
func (c *Controller[T]) Replace(match func(T) bool, item T) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	replaced := 0
	for i := range c.state.Items {
		if match(c.state.Items[i]) {
			c.state.Items[i] = item
			replaced++
		}
	}
	if replaced == 0 {
		c.mu.Unlock()
		return 0
	}
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
	return replaced
}

// OnScroll обрабатывает прокрутку. Возвращает true, если запрошена страница.
//
// Обработчик срабатывает один раз на пересечение порога и снова включается
// только после того, как страница применена или загрузка завершилась ошибкой.
// После ошибки запрашивается та же страница, иначе следующая.
func (c *Controller[T]) OnScroll(pos ScrollPosition) bool {
	c.mu.Lock()
	if !c.armed || c.closed || c.inflight != nil || c.state.Exhausted || !pos.NearBottom() {
		c.mu.Unlock()
		return false
	}

	next := c.state.Page
	if c.state.Err == nil {
		next++
	}
	c.state.Page = next
	c.startLocked(next, modeLoad)
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
	return true
}

// State возвращает снимок состояния
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.state
	snap.Items = slices.Clone(c.state.Items)
	return snap
}

// Subscribe регистрирует наблюдателя. fn вызывается после каждого изменения
// состояния; вызовы последовательны, устаревшие снимки не доставляются.
// fn не должен синхронно вызывать методы Controller. Возвращает функцию отписки.
func (c *Controller[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Wait блокируется, пока не завершатся все запущенные загрузки
// и не будут уведомлены наблюдатели. Можно вызывать из нескольких горутин
// одновременно с OnScroll, SetFilters и Refresh.
func (c *Controller[T]) Wait() {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	if idle != nil {
		<-idle
	}
}

// Close отменяет текущую загрузку. Поздние ответы игнорируются.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.armed = false
	c.cancelLocked()
	c.state.Loading = false
	c.mu.Unlock()

	c.cancel()
}

func (c *Controller[T]) cancelLocked() {
	c.epoch++
	if c.inflight != nil {
		c.inflight.Cancel()
		c.inflight = nil
	}
}

func (c *Controller[T]) startLocked(page int, mode loadMode) {
	h := c.fetch(c.ctx, c.state.Filters, page)
	c.inflight = h
	c.armed = false
	c.state.Loading = true

	if c.active == 0 {
		c.idle = make(chan struct{})
	}
	c.active++

	t := ticket{epoch: c.epoch, page: page, mode: mode}
	go c.await(h, t)
}

func (c *Controller[T]) done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active--
	if c.active == 0 {
		close(c.idle)
	}
}

func (c *Controller[T]) await(h *api.Handle[[]T], t ticket) {
	defer c.done()

	items, err := h.Wait()

	c.mu.Lock()
	if t.epoch != c.epoch || c.inflight != h {
		c.mu.Unlock()
		c.logger.Debug("dropping stale feed page", "page", t.page)
		return
	}
	c.inflight = nil
	c.state.Loading = false
	c.armed = true

	if err != nil {
		c.state.Err = err
		c.logger.Warn("failed to load feed page", "page", t.page, "error", err)
	} else {
		c.state.Err = nil
		c.applyLocked(t, items)
	}
	u := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(u)
}

func (c *Controller[T]) applyLocked(t ticket, items []T) {
	switch {
	case t.page == 1 && t.mode == modeRefresh:
		if len(items) > 0 {
			c.state.Items = slices.Clone(items)
		}
	case t.page == 1:
		c.state.Items = slices.Clone(items)
		c.state.Exhausted = len(items) == 0
	default:
		if len(items) == 0 {
			c.state.Exhausted = true
			return
		}
		c.state.Items = append(c.state.Items, items...)
	}
}

// update - снимок состояния для наблюдателей
type update[T any] struct {
	state   State[T]
	subs    []func(State[T])
	version uint64
}

func (c *Controller[T]) snapshotLocked() update[T] {
	snap := c.state
	snap.Items = slices.Clone(c.state.Items)

	subs := make([]func(State[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.version++
	return update[T]{state: snap, subs: subs, version: c.version}
}

func (c *Controller[T]) notify(u update[T]) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	// Снимок мог опоздать: более новый уже доставлен
	if u.version <= c.notified {
		return
	}
	c.notified = u.version
	for _, fn := range u.subs {
		fn(u.state)
	}
}

func (c *Controller[T]) scrollToTopLocked() {
	if c.viewport != nil {
		c.viewport.ScrollToTop()
	}
}
