package cli

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitshare/internal/apitest"
	"github.com/iudanet/fitshare/internal/client/feed"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// searchPages возвращает параметры запросов страниц ленты по порядку
func searchPages(t *testing.T, srv *apitest.Server) []url.Values {
	t.Helper()
	var out []url.Values
	for _, call := range srv.CallsTo("GET", "/posts/search/cityAndType") {
		q, err := url.ParseQuery(call.Query)
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}

// Прокрутка до конца: страницы запрашиваются по одной, каждый пост выводится один раз
func TestCli_Feed_ScrollToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.io.setHeight(8)

	var seeded []pkgapi.Post
	for i := range 7 {
		seeded = append(seeded, env.srv.SeedPost("ann@example.com", "Oslo", "running", "run "+string(rune('A'+i))))
	}

	inputs := []string{"", "", "", "", "", "q"}
	require.NoError(t, env.run(t, inputs, "feed", "--city", "Oslo"))

	out := env.io.output()
	assert.Contains(t, out, "=== Explore: city=Oslo type=all ===")
	for _, p := range seeded {
		assert.Equal(t, 1, strings.Count(out, "id: "+p.ID), "post %s", p.ID)
	}
	assert.Contains(t, out, "#7 Ann | Oslo | running")
	assert.Contains(t, out, "-- end of feed --")

	// Новые посты первыми
	assert.Less(t, strings.Index(out, seeded[6].ID), strings.Index(out, seeded[0].ID))

	pages := searchPages(t, env.srv)
	require.Len(t, pages, 4)
	for i, q := range pages {
		assert.Equal(t, []string{string(rune('1' + i))}, q["page"])
		assert.Equal(t, "3", q.Get("pageSize"))
		assert.Equal(t, "Oslo", q.Get("city"))
		assert.Equal(t, "all", q.Get("type"))
	}
}

// Смена фильтров начинает ленту заново с первой страницы
func TestCli_Feed_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	oslo := env.srv.SeedPost("ann@example.com", "Oslo", "running", "oslo run")
	bergen := env.srv.SeedPost("ann@example.com", "Bergen", "yoga", "bergen yoga")
	env.srv.SeedUser("bob@example.com", "secret", "Bob", "Bergen")
	bob := env.srv.SeedPost("bob@example.com", "Bergen", "gym", "bob lifts")

	inputs := []string{"c Bergen", "t yoga", "c", "t", "m", "q"}
	require.NoError(t, env.run(t, inputs, "feed"))

	out := env.io.output()
	assert.Contains(t, out, "=== Explore: city=all type=all ===")
	assert.Contains(t, out, "=== Explore: city=Bergen type=all ===")
	assert.Contains(t, out, "=== Explore: city=Bergen type=yoga ===")
	assert.Contains(t, out, "=== Explore: city=all type=all mine ===")

	pages := searchPages(t, env.srv)
	require.Len(t, pages, 5)
	assert.Equal(t, "Bergen", pages[1].Get("city"))
	assert.Equal(t, "yoga", pages[2].Get("type"))
	for _, q := range pages {
		assert.Equal(t, "1", q.Get("page"))
	}
	assert.Len(t, env.srv.CallsTo("GET", "/posts/user/me"), 1)

	// Пост Боба есть в общей ленте, но не в "mine"
	mine := out[strings.LastIndex(out, "mine ==="):]
	assert.NotContains(t, mine, bob.ID)
	assert.Contains(t, mine, oslo.ID)
	assert.Contains(t, mine, bergen.ID)
}

// Ошибка страницы показывается, Enter повторяет ту же страницу
func TestCli_Feed_RetryAfterError(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	for range 5 {
		env.srv.SeedPost("ann@example.com", "Oslo", "gym", "lift")
	}
	env.srv.FailNext("GET", "/posts/search/cityAndType", 500, 1)

	require.NoError(t, env.run(t, []string{"", "q"}, "feed"))

	out := env.io.output()
	assert.Contains(t, out, "! failed to load page 1")
	assert.Contains(t, out, "#1 Ann | Oslo | gym")

	pages := searchPages(t, env.srv)
	require.Len(t, pages, 2)
	assert.Equal(t, "1", pages[0].Get("page"))
	assert.Equal(t, "1", pages[1].Get("page"))
}

func TestCli_Feed_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	// Конец ввода завершает просмотр
	require.NoError(t, env.run(t, nil, "feed", "--type", "yoga"))
	assert.Contains(t, env.io.output(), "No posts found.")
}

func TestCli_Liked(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	liked := env.srv.SeedPost("ann@example.com", "Oslo", "running", "liked run")
	other := env.srv.SeedPost("ann@example.com", "Oslo", "running", "other run")
	require.NoError(t, env.run(t, nil, "post", "like", liked.ID))
	env.io.reset()

	require.NoError(t, env.run(t, []string{"m", "q"}, "liked"))
	out := env.io.output()
	assert.Contains(t, out, "=== Liked: city=all type=all ===")
	assert.Contains(t, out, liked.ID)
	assert.NotContains(t, out, other.ID)
	assert.Contains(t, out, "This feed has no 'mine' filter.")
}

func TestPager_Scroll(t *testing.T) {
	stdio := newTerminal()
	stdio.setHeight(11)
	p := newPager(stdio, "Test", true, func(n int, _ *pkgapi.Post) string { return "a\nb" })

	// 5 постов по 2 строки, видно 10 строк
	p.update(feed.State[pkgapi.Post]{Items: make([]pkgapi.Post, 5)})
	pos := p.scroll()
	assert.Equal(t, feed.ScrollPosition{ScrollTop: 0, ScrollHeight: 10, ClientHeight: 10}, pos)
	assert.True(t, pos.NearBottom())

	// 20 постов: полэкрана за шаг, не дальше конца
	p.update(feed.State[pkgapi.Post]{Items: make([]pkgapi.Post, 20)})
	pos = p.scroll()
	assert.Equal(t, 5.0, pos.ScrollTop)
	assert.False(t, pos.NearBottom())
	for range 10 {
		pos = p.scroll()
	}
	assert.Equal(t, 30.0, pos.ScrollTop)
	assert.True(t, pos.NearBottom())

	p.ScrollToTop()
	assert.Equal(t, 5.0, p.scroll().ScrollTop)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "city=all type=all", describe(feed.Filters{}))
	assert.Equal(t, "city=Oslo type=gym mine", describe(feed.Filters{City: "Oslo", Type: "gym", MineOnly: true}))
}

// lastScreen - вывод после последнего заголовка ленты
func lastScreen(out string) string {
	return out[strings.LastIndex(out, "=== "):]
}

// Удаление из ленты убирает пост без перезагрузки страниц
func TestCli_Feed_Delete(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	older := env.srv.SeedPost("ann@example.com", "Oslo", "running", "older run")
	newer := env.srv.SeedPost("ann@example.com", "Oslo", "running", "newer run")

	require.NoError(t, env.run(t, []string{"d 1", "y", "q"}, "feed"))

	out := env.io.output()
	assert.Contains(t, out, "✓ Post deleted")
	assert.Len(t, env.srv.CallsTo("DELETE", "/posts/"+newer.ID), 1)
	assert.NotContains(t, lastScreen(out), newer.ID)
	assert.Contains(t, lastScreen(out), "#1 Ann | Oslo | running")
	assert.Contains(t, lastScreen(out), older.ID)
	assert.Len(t, searchPages(t, env.srv), 1)
}

func TestCli_Feed_DeleteCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	post := env.srv.SeedPost("ann@example.com", "Oslo", "running", "keep me")

	require.NoError(t, env.run(t, []string{"d 1", "n", "q"}, "feed"))
	assert.Contains(t, env.io.output(), "Cancelled.")
	assert.Empty(t, env.srv.CallsTo("DELETE", "/posts/"+post.ID))
}

// Лайк подменяет пост ответом сервера
func TestCli_Feed_Like(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.srv.SeedUser("bob@example.com", "secret", "Bob", "Oslo")
	post := env.srv.SeedPost("bob@example.com", "Oslo", "gym", "bob lifts")

	require.NoError(t, env.run(t, []string{"l 1", "l 1", "q"}, "feed"))

	out := env.io.output()
	liked := strings.Index(out, "♥ Liked (1 likes)")
	unliked := strings.Index(out, "♡ Not liked (0 likes)")
	require.GreaterOrEqual(t, liked, 0)
	require.Greater(t, unliked, liked)
	assert.Contains(t, out[liked:unliked], "likes: 1  comments: 0  id: "+post.ID)
	assert.Contains(t, lastScreen(out), "likes: 0  comments: 0  id: "+post.ID)

	assert.Len(t, env.srv.CallsTo("PUT", "/posts/addLike/"+post.ID), 1)
	assert.Len(t, env.srv.CallsTo("PUT", "/posts/removeLike/"+post.ID), 1)
	assert.Len(t, searchPages(t, env.srv), 1)
}

// Снятие лайка в ленте понравившихся убирает пост
func TestCli_Liked_Unlike(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	first := env.srv.SeedPost("ann@example.com", "Oslo", "running", "first")
	second := env.srv.SeedPost("ann@example.com", "Oslo", "running", "second")
	require.NoError(t, env.run(t, nil, "post", "like", first.ID))
	require.NoError(t, env.run(t, nil, "post", "like", second.ID))
	env.io.reset()

	require.NoError(t, env.run(t, []string{"l 1", "q"}, "liked"))

	out := env.io.output()
	assert.Contains(t, out, "♡ Not liked (0 likes)")
	assert.NotContains(t, lastScreen(out), second.ID)
	assert.Contains(t, lastScreen(out), first.ID)

	stored, ok := env.srv.Post(second.ID)
	require.True(t, ok)
	assert.Empty(t, stored.Likes)
}

// Правка перезагружает первую страницу
func TestCli_Feed_Edit(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	post := env.srv.SeedPost("ann@example.com", "Oslo", "running", "morning run")

	require.NoError(t, env.run(t, []string{"e 1 evening run", "q"}, "feed"))

	out := env.io.output()
	assert.Contains(t, out, "✓ Post updated")
	assert.Contains(t, lastScreen(out), "evening run")
	assert.Len(t, searchPages(t, env.srv), 2)

	stored, ok := env.srv.Post(post.ID)
	require.True(t, ok)
	assert.Equal(t, "evening run", stored.Description)
}

// Ошибки действий выводятся, просмотр продолжается
func TestCli_Feed_MutationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.srv.SeedUser("bob@example.com", "secret", "Bob", "Oslo")
	foreign := env.srv.SeedPost("bob@example.com", "Oslo", "gym", "bob lifts")

	inputs := []string{"d 9", "l x", "d 1", "y", "e 1", "", "q"}
	require.NoError(t, env.run(t, inputs, "feed"))

	out := env.io.output()
	assert.Contains(t, out, "! no post #9 in the feed")
	assert.Contains(t, out, `! expected a post number, got "x"`)
	assert.Contains(t, out, "! failed to delete post:")
	assert.Contains(t, out, "not the author of the post")
	assert.Contains(t, out, "! description cannot be empty")
	assert.Contains(t, lastScreen(out), foreign.ID)
	assert.Empty(t, env.srv.CallsTo("PUT", "/posts/"+foreign.ID))
}
