package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitshare/internal/client/feed"
	"github.com/iudanet/fitshare/internal/client/posts"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

func (c *Cli) feedCommand() *cobra.Command {
	var f feed.Filters
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Browse posts filtered by city and training type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch := feed.PostsFetcher(c.posts, c.posts.PageSize())
			return c.browse(cmd.Context(), exploreFeed, fetch, f)
		},
	}
	cmd.Flags().StringVar(&f.City, "city", "", "city filter (all when empty)")
	cmd.Flags().StringVar(&f.Type, "type", "", "training type filter (all when empty)")
	cmd.Flags().BoolVar(&f.MineOnly, "mine", false, "show only your posts")
	return cmd
}

func (c *Cli) likedCommand() *cobra.Command {
	var f feed.Filters
	cmd := &cobra.Command{
		Use:   "liked",
		Short: "Browse posts you liked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := c.users.CurrentOrFetch(ctx)
			if err != nil {
				return fmt.Errorf("failed to get current user: %w", err)
			}
			fetch := feed.LikedFetcher(c.posts, user.ID, c.posts.PageSize())
			return c.browse(ctx, likedFeed, fetch, f)
		},
	}
	cmd.Flags().StringVar(&f.City, "city", "", "city filter (all when empty)")
	cmd.Flags().StringVar(&f.Type, "type", "", "training type filter (all when empty)")
	return cmd
}

type feedKind int

const (
	exploreFeed feedKind = iota
	likedFeed
)

// browse показывает ленту в пейджере до команды выхода или конца ввода
func (c *Cli) browse(ctx context.Context, kind feedKind, fetch feed.Fetcher[pkgapi.Post], f feed.Filters) error {
	title, allowMine := "Explore", true
	if kind == likedFeed {
		title, allowMine = "Liked", false
	}
	p := newPager(c.io, title, allowMine, c.feedItem)
	p.dropUnliked = kind == likedFeed
	p.actions = c

	ctrl := feed.New(fetch, feed.WithLogger(c.logger), feed.WithViewport(p))
	return p.run(ctx, ctrl, f)
}

var _ postActions = (*Cli)(nil)

func (c *Cli) deletePost(ctx context.Context, id string) error {
	_, err := wait(ctx, c.posts.Delete(ctx, id))
	return err
}

func (c *Cli) editDescription(ctx context.Context, id, description string) error {
	_, err := wait(ctx, c.posts.Edit(ctx, id, posts.PostForm{Description: &description}))
	return err
}

func (c *Cli) toggleLike(ctx context.Context, post *pkgapi.Post) (*pkgapi.Post, bool, error) {
	user, err := c.users.CurrentOrFetch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get current user: %w", err)
	}

	h := c.posts.AddLike(ctx, post.ID, user.ID)
	if post.LikedBy(user.ID) {
		h = c.posts.RemoveLike(ctx, post.ID, user.ID)
	}
	updated, err := wait(ctx, h)
	if err != nil {
		return nil, false, err
	}
	return updated, updated.LikedBy(user.ID), nil
}

// feedRow - данные шаблона feedItem
type feedRow struct {
	Post *pkgapi.Post
	N    int
}

func (c *Cli) feedItem(n int, post *pkgapi.Post) string {
	var b strings.Builder
	if err := c.render(&b, "feedItem", feedRow{N: n, Post: post}); err != nil {
		return fmt.Sprintf("#%d %s (render error: %v)", n, post.ID, err)
	}
	return b.String()
}
