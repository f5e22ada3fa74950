package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/iudanet/fitshare/internal/client/feed"
	"github.com/iudanet/fitshare/internal/client/iocli"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

const pagerHelp = `Commands:
  <Enter>       scroll down
  c <city>      filter by city (c alone resets)
  t <type>      filter by training type (t alone resets)
  m             toggle only my posts
  l <n>         like or unlike post #n
  e <n> [text]  edit the description of post #n
  d <n>         delete post #n
  r             reload the first page
  q             quit`

// postActions - изменения постов, доступные из ленты
type postActions interface {
	deletePost(ctx context.Context, id string) error
	editDescription(ctx context.Context, id, description string) error
	// toggleLike возвращает пост после изменения и признак лайка текущего пользователя
	toggleLike(ctx context.Context, post *pkgapi.Post) (*pkgapi.Post, bool, error)
}

// pager показывает ленту в терминале и служит для нее областью прокрутки.
// Терминал пишет только вниз: прокрутка выводит следующие строки,
// а ScrollToTop начинает вывод с начала списка.
type pager struct {
	io        iocli.IO
	actions   postActions
	item      func(n int, post *pkgapi.Post) string
	title     string
	allowMine bool
	// dropUnliked убирает пост из ленты после снятия лайка
	dropUnliked bool

	mu      sync.Mutex
	state   feed.State[pkgapi.Post]
	lines   []string
	top     int
	printed int
	footer  string
	restart bool
}

var _ feed.Viewport = (*pager)(nil)

func newPager(stdio iocli.IO, title string, allowMine bool, item func(int, *pkgapi.Post) string) *pager {
	return &pager{
		io:        stdio,
		item:      item,
		title:     title,
		allowMine: allowMine,
		restart:   true,
	}
}

// ScrollToTop вызывается контроллером при смене фильтров и обновлении
func (p *pager) ScrollToTop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.top = 0
	p.printed = 0
	p.footer = ""
	p.restart = true
}

// update получает снимки состояния от контроллера
func (p *pager) update(st feed.State[pkgapi.Post]) {
	lines := make([]string, 0, len(st.Items)*3)
	for i := range st.Items {
		lines = append(lines, strings.Split(p.item(i+1, &st.Items[i]), "\n")...)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = st
	p.lines = lines
}

// height - строки под ленту; одна строка остается под приглашение
func (p *pager) height() int {
	return max(p.io.Height()-1, 4)
}

func (p *pager) run(ctx context.Context, ctrl *feed.Controller[pkgapi.Post], f feed.Filters) error {
	unsubscribe := ctrl.Subscribe(p.update)
	defer unsubscribe()
	defer ctrl.Close()

	ctrl.Mount(f)
	for {
		ctrl.Wait()
		p.draw()

		input, err := p.io.ReadInput("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		cmd, arg, _ := strings.Cut(input, " ")
		arg = strings.TrimSpace(arg)
		filters := ctrl.State().Filters
		switch cmd {
		case "":
			ctrl.OnScroll(p.scroll())
		case "q":
			return nil
		case "r":
			ctrl.Refresh()
		case "c":
			filters.City = arg
			ctrl.SetFilters(filters)
		case "t":
			filters.Type = arg
			ctrl.SetFilters(filters)
		case "m":
			if !p.allowMine {
				p.io.Println("This feed has no 'mine' filter.")
				continue
			}
			filters.MineOnly = !filters.MineOnly
			ctrl.SetFilters(filters)
		case "l", "e", "d":
			if err := p.mutate(ctx, ctrl, cmd, arg); err != nil {
				p.io.Printf("! %v\n", err)
			}
		default:
			p.io.Println(pagerHelp)
		}
	}
}

// mutate выполняет действие над постом #n и обновляет ленту на месте.
// После правки перезагружается первая страница.
func (p *pager) mutate(ctx context.Context, ctrl *feed.Controller[pkgapi.Post], cmd, arg string) error {
	if p.actions == nil {
		return errors.New("this feed is read-only")
	}
	post, rest, err := p.pick(arg)
	if err != nil {
		return err
	}
	byID := func(other pkgapi.Post) bool { return other.ID == post.ID }

	switch cmd {
	case "l":
		updated, liked, err := p.actions.toggleLike(ctx, &post)
		if err != nil {
			return fmt.Errorf("failed to update like: %w", err)
		}
		if !liked && p.dropUnliked {
			ctrl.Remove(byID)
		} else {
			ctrl.Replace(byID, *updated)
		}
		p.redraw()
		if liked {
			p.io.Printf("♥ Liked (%s likes)\n", count(updated.Likes))
		} else {
			p.io.Printf("♡ Not liked (%s likes)\n", count(updated.Likes))
		}

	case "e":
		if rest == "" {
			if rest, err = p.io.ReadInput("New description: "); err != nil {
				return fmt.Errorf("failed to read description: %w", err)
			}
			rest = strings.TrimSpace(rest)
		}
		if rest == "" {
			return errors.New("description cannot be empty")
		}
		if err := p.actions.editDescription(ctx, post.ID, rest); err != nil {
			return fmt.Errorf("failed to edit post: %w", err)
		}
		p.io.Println("✓ Post updated")
		ctrl.Refresh()

	case "d":
		answer, err := p.io.ReadInput(fmt.Sprintf("Delete post %s? [y/N]: ", post.ID))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			p.io.Println("Cancelled.")
			return nil
		}
		if err := p.actions.deletePost(ctx, post.ID); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		ctrl.Remove(byID)
		p.redraw()
		p.io.Println("✓ Post deleted")
	}
	return nil
}

// pick находит пост по номеру из ленты; rest - текст после номера
func (p *pager) pick(arg string) (pkgapi.Post, string, error) {
	num, rest, _ := strings.Cut(arg, " ")
	n, err := strconv.Atoi(num)
	if err != nil {
		return pkgapi.Post{}, "", fmt.Errorf("expected a post number, got %q", num)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 1 || n > len(p.state.Items) {
		return pkgapi.Post{}, "", fmt.Errorf("no post #%d in the feed", n)
	}
	return p.state.Items[n-1], strings.TrimSpace(rest), nil
}

// redraw выводит видимую область заново, не сдвигая ее
func (p *pager) redraw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.top = min(p.top, max(len(p.lines)-p.height(), 0))
	p.printed = p.top
	p.footer = ""
	p.restart = true
}

// scroll сдвигает видимую область на полэкрана и возвращает ее геометрию
func (p *pager) scroll() feed.ScrollPosition {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.height()
	total := len(p.lines)
	p.top = min(p.top+max(h/2, 1), max(total-h, 0))
	return feed.ScrollPosition{
		ScrollTop:    float64(p.top),
		ScrollHeight: float64(total),
		ClientHeight: float64(h),
	}
}

// draw выводит еще не показанные строки видимой области и строку состояния
func (p *pager) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.restart {
		p.restart = false
		p.io.Printf("=== %s: %s ===\n", p.title, describe(p.state.Filters))
	}

	end := min(p.top+p.height(), len(p.lines))
	for _, line := range p.lines[min(p.printed, end):end] {
		p.io.Println(line)
	}
	fresh := end > p.printed
	p.printed = max(p.printed, end)

	var footer string
	switch st := p.state; {
	case st.Err != nil:
		footer = fmt.Sprintf("! failed to load page %d: %v (Enter to retry)", st.Page, st.Err)
	case st.Exhausted && len(p.lines) == 0:
		footer = "No posts found."
	case st.Exhausted && end == len(p.lines):
		footer = "-- end of feed --"
	}
	if footer != "" && (fresh || footer != p.footer) {
		p.io.Println(footer)
	}
	p.footer = footer
}

func describe(f feed.Filters) string {
	city, kind := f.City, f.Type
	if city == "" {
		city = "all"
	}
	if kind == "" {
		kind = "all"
	}
	s := fmt.Sprintf("city=%s type=%s", city, kind)
	if f.MineOnly {
		s += " mine"
	}
	return s
}
