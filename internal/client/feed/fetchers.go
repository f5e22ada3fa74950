package feed

import (
	"context"

	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/posts"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

//go:generate moq -out source_mock.go . PostSource

// PostSource - запросы постов, нужные лентам
type PostSource interface {
	Search(ctx context.Context, q posts.Query) *api.Handle[[]pkgapi.Post]
	ByUser(ctx context.Context, page, pageSize int) *api.Handle[[]pkgapi.Post]
	LikedBy(ctx context.Context, userID string) *api.Handle[[]pkgapi.Post]
}

var _ PostSource = (*posts.Service)(nil)

func normalizePageSize(n int) int {
	if n < 1 {
		return posts.DefaultPageSize
	}
	return n
}

// PostsFetcher - лента Explore: свои посты при MineOnly, иначе поиск по городу и типу
func PostsFetcher(src PostSource, pageSize int) Fetcher[pkgapi.Post] {
	pageSize = normalizePageSize(pageSize)
	return func(ctx context.Context, f Filters, page int) *api.Handle[[]pkgapi.Post] {
		if f.MineOnly {
			return src.ByUser(ctx, page, pageSize)
		}
		return src.Search(ctx, posts.Query{
			City:     f.City,
			Type:     f.Type,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// LikedFetcher - лента понравившихся постов. Сервер отдает список целиком,
// поэтому фильтрация и разбиение на страницы выполняются на клиенте.
func LikedFetcher(src PostSource, userID string, pageSize int) Fetcher[pkgapi.Post] {
	pageSize = normalizePageSize(pageSize)
	return func(ctx context.Context, f Filters, page int) *api.Handle[[]pkgapi.Post] {
		return api.Map(src.LikedBy(ctx, userID), func(all []pkgapi.Post) ([]pkgapi.Post, error) {
			liked := make([]pkgapi.Post, 0, len(all))
			for i := range all {
				if all[i].LikedBy(userID) && matches(f.City, all[i].City) && matches(f.Type, all[i].Type) {
					liked = append(liked, all[i])
				}
			}

			start := (page - 1) * pageSize
			if page < 1 || start >= len(liked) {
				return []pkgapi.Post{}, nil
			}
			return liked[start:min(start+pageSize, len(liked))], nil
		})
	}
}

func matches(filter, value string) bool {
	return filter == "" || filter == posts.AnyValue || filter == value
}
