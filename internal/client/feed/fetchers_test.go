package feed

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitshare/internal/apitest"
	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/auth"
	"github.com/iudanet/fitshare/internal/client/posts"
	"github.com/iudanet/fitshare/internal/client/storage/cookie"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// newSource - PostSourceMock с готовыми ответами
func newSource(liked []pkgapi.Post) *PostSourceMock {
	return &PostSourceMock{
		SearchFunc: func(ctx context.Context, q posts.Query) *api.Handle[[]pkgapi.Post] {
			return api.Resolved([]pkgapi.Post{{ID: "search"}}, nil)
		},
		ByUserFunc: func(ctx context.Context, page, pageSize int) *api.Handle[[]pkgapi.Post] {
			return api.Resolved([]pkgapi.Post{{ID: "mine"}}, nil)
		},
		LikedByFunc: func(ctx context.Context, userID string) *api.Handle[[]pkgapi.Post] {
			return api.Resolved(liked, nil)
		},
	}
}

func TestPostsFetcher(t *testing.T) {
	src := newSource(nil)
	fetch := PostsFetcher(src, 0)

	got, err := fetch(context.Background(), Filters{City: "Oslo", Type: "yoga"}, 3).Wait()
	require.NoError(t, err)
	assert.Equal(t, "search", got[0].ID)
	require.Len(t, src.SearchCalls(), 1)
	assert.Equal(t, posts.Query{City: "Oslo", Type: "yoga", Page: 3, PageSize: posts.DefaultPageSize}, src.SearchCalls()[0].Q)

	// MineOnly переключает на собственные посты
	got, err = fetch(context.Background(), Filters{City: "Oslo", MineOnly: true}, 2).Wait()
	require.NoError(t, err)
	assert.Equal(t, "mine", got[0].ID)
	require.Len(t, src.ByUserCalls(), 1)
	assert.Equal(t, 2, src.ByUserCalls()[0].Page)
	assert.Equal(t, posts.DefaultPageSize, src.ByUserCalls()[0].PageSize)
	assert.Len(t, src.SearchCalls(), 1)
}

func likedPost(id, city string, likes ...string) pkgapi.Post {
	return pkgapi.Post{ID: id, City: city, Type: "running", Likes: likes}
}

func TestLikedFetcher(t *testing.T) {
	src := newSource([]pkgapi.Post{
		likedPost("p1", "Oslo", "u1"),
		likedPost("p2", "Oslo", "u2"), // сервер вернул чужой лайк
		likedPost("p3", "Bergen", "u2", "u1"),
		likedPost("p4", "Oslo", "u1"),
		likedPost("p5", "Oslo", "u1"),
	})
	fetch := LikedFetcher(src, "u1", 2)

	ids := func(ps []pkgapi.Post) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		filters Filters
		want    []string
		page    int
	}{
		{page: 1, want: []string{"p1", "p3"}},
		{page: 2, want: []string{"p4", "p5"}},
		{page: 3, want: []string{}},
		{page: 1, filters: Filters{City: "Oslo"}, want: []string{"p1", "p4"}},
		{page: 2, filters: Filters{City: "Oslo"}, want: []string{"p5"}},
		{page: 1, filters: Filters{City: "all", Type: "yoga"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d %+v", tt.page, tt.filters), func(t *testing.T) {
			got, err := fetch(context.Background(), tt.filters, tt.page).Wait()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
	require.NotEmpty(t, src.LikedByCalls())
	assert.Equal(t, "u1", src.LikedByCalls()[0].UserID)
}

// Лента поверх настоящего клиента: страницы до исчерпания, истекший токен
// обновляется незаметно для контроллера
func TestController_WithPostsService(t *testing.T) {
	srv := apitest.New(t)
	srv.SeedUser("ann@example.com", "secret", "Ann", "Oslo")
	for i := 0; i < 25; i++ {
		srv.SeedPost("ann@example.com", "Oslo", "running", fmt.Sprintf("run %d", i))
	}
	srv.SeedPost("ann@example.com", "Bergen", "yoga", "elsewhere")

	store, err := cookie.New(srv.URL)
	require.NoError(t, err)
	public := api.NewClient(srv.URL)
	session := auth.NewService(public, store, nil)
	_, err = session.Login(context.Background(), "ann@example.com", "secret").Wait()
	require.NoError(t, err)
	svc := posts.NewService(public.With(session.Middleware()))

	c := New(PostsFetcher(svc, 10))
	defer c.Close()

	c.Mount(Filters{City: "Oslo"})
	c.Wait()
	require.Len(t, c.State().Items, 10)
	assert.Equal(t, "run 24", c.State().Items[0].Description)

	srv.ExpireAccessTokens()

	for c.OnScroll(atBottom) {
		c.Wait()
	}

	st := c.State()
	require.NoError(t, st.Err)
	assert.True(t, st.Exhausted)
	require.Len(t, st.Items, 25)
	assert.Equal(t, "run 0", st.Items[24].Description)
	assert.Len(t, srv.CallsTo(http.MethodGet, api.RefreshPath), 1)
}
