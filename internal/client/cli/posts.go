package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitshare/internal/client/posts"
)

func (c *Cli) postCommand() *cobra.Command {
	post := &cobra.Command{
		Use:   "post",
		Short: "View and manage posts",
	}
	post.AddCommand(
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a post with comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runGetPost(cmd.Context(), args[0])
			},
		},
		c.uploadCommand(),
		c.editPostCommand(),
		c.deletePostCommand(),
		&cobra.Command{
			Use:   "like <id>",
			Short: "Like a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runLike(cmd.Context(), args[0], true)
			},
		},
		&cobra.Command{
			Use:   "unlike <id>",
			Short: "Remove your like from a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runLike(cmd.Context(), args[0], false)
			},
		},
		&cobra.Command{
			Use:   "comment <id> [text...]",
			Short: "Comment on a post",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			},
		},
	)
	return post
}

func (c *Cli) runGetPost(ctx context.Context, id string) error {
	post, err := wait(ctx, c.posts.Get(ctx, id))
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	return c.render(c.io, "post", post)
}

type postFlags struct {
	description string
	city        string
	kind        string
	picture     string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "post description")
	cmd.Flags().StringVar(&f.city, "city", "", "city of the training")
	cmd.Flags().StringVar(&f.kind, "type", "", "training type (see 'fitshare types')")
	cmd.Flags().StringVar(&f.picture, "picture", "", "path to the picture")
}

// form собирает поля формы; пустые флаги не отправляются
func (f *postFlags) form(cmd *cobra.Command) (posts.PostForm, error) {
	var form posts.PostForm
	flags := cmd.Flags()
	if flags.Changed("description") {
		form.Description = &f.description
	}
	if flags.Changed("city") {
		form.City = &f.city
	}
	if flags.Changed("type") {
		form.Type = &f.kind
	}

	picture, err := readFile(f.picture)
	if err != nil {
		return form, err
	}
	form.Picture = picture
	return form, nil
}

func (c *Cli) uploadCommand() *cobra.Command {
	var f postFlags
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, err := f.form(cmd)
			if err != nil {
				return err
			}
			return c.runUpload(cmd.Context(), form)
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("picture")
	return cmd
}

func (c *Cli) runUpload(ctx context.Context, form posts.PostForm) error {
	if err := c.checkType(ctx, form.Type); err != nil {
		return err
	}
	if err := c.checkCity(ctx, form.City); err != nil {
		return err
	}

	post, err := wait(ctx, c.posts.Upload(ctx, form))
	if err != nil {
		return fmt.Errorf("failed to upload post: %w", err)
	}
	c.io.Printf("✓ Post uploaded: %s\n", post.ID)
	return nil
}

func (c *Cli) editPostCommand() *cobra.Command {
	var f postFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit your post; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := f.form(cmd)
			if err != nil {
				return err
			}
			if form == (posts.PostForm{}) {
				return fmt.Errorf("nothing to update: pass at least one flag")
			}
			return c.runEditPost(cmd.Context(), args[0], form)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *Cli) runEditPost(ctx context.Context, id string, form posts.PostForm) error {
	if err := c.checkType(ctx, form.Type); err != nil {
		return err
	}
	if err := c.checkCity(ctx, form.City); err != nil {
		return err
	}

	post, err := wait(ctx, c.posts.Edit(ctx, id, form))
	if err != nil {
		return fmt.Errorf("failed to edit post: %w", err)
	}
	c.io.Println("✓ Post updated")
	return c.render(c.io, "post", post)
}

// checkType сверяет тип тренировки со справочником сервера.
// Если справочник недоступен, проверку оставляем серверу.
func (c *Cli) checkType(ctx context.Context, kind *string) error {
	if kind == nil {
		return nil
	}
	types, err := c.types.Get(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to load training types", "error", err)
		return nil
	}
	if len(types) > 0 && !slices.Contains(types, *kind) {
		return fmt.Errorf("unknown training type %q (run 'fitshare types')", *kind)
	}
	return nil
}

func (c *Cli) deletePostCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete your post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeletePost(cmd.Context(), args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *Cli) runDeletePost(ctx context.Context, id string, yes bool) error {
	if !yes {
		answer, err := c.io.ReadInput(fmt.Sprintf("Delete post %s? [y/N]: ", id))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			c.io.Println("Cancelled.")
			return nil
		}
	}

	if _, err := wait(ctx, c.posts.Delete(ctx, id)); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	c.io.Println("✓ Post deleted")
	return nil
}

func (c *Cli) runLike(ctx context.Context, id string, like bool) error {
	user, err := c.users.CurrentOrFetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	h := c.posts.RemoveLike(ctx, id, user.ID)
	if like {
		h = c.posts.AddLike(ctx, id, user.ID)
	}
	post, err := wait(ctx, h)
	if err != nil {
		return fmt.Errorf("failed to update like: %w", err)
	}

	if post.LikedBy(user.ID) {
		c.io.Printf("♥ Liked (%s likes)\n", count(post.Likes))
	} else {
		c.io.Printf("♡ Not liked (%s likes)\n", count(post.Likes))
	}
	return nil
}

func (c *Cli) runComment(ctx context.Context, id, body string) error {
	if body == "" {
		var err error
		body, err = c.io.ReadInput("Comment: ")
		if err != nil {
			return fmt.Errorf("failed to read comment: %w", err)
		}
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("comment cannot be empty")
	}

	comments, err := wait(ctx, c.posts.AddComment(ctx, id, body))
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	c.io.Printf("✓ Comment added (%s comments)\n", count(comments))
	return nil
}

func (c *Cli) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List training types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := c.types.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load training types: %w", err)
			}
			return c.render(c.io, "types", types)
		},
	}
}
