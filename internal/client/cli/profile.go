package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitshare/internal/client/users"
)

func (c *Cli) meCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMe(cmd.Context())
		},
	}
}

func (c *Cli) runMe(ctx context.Context) error {
	user, err := wait(ctx, c.users.Me(ctx))
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	return c.render(c.io, "profile", user)
}

type profileFlags struct {
	fullName string
	email    string
	homeCity string
	picture  string
}

func (c *Cli) profileCommand() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile",
	}

	var f profileFlags
	edit := &cobra.Command{
		Use:   "edit",
		Short: "Edit profile fields; only the given flags are sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			upd, err := f.update(cmd)
			if err != nil {
				return err
			}
			return c.runEditProfile(cmd.Context(), upd)
		},
	}
	edit.Flags().StringVar(&f.fullName, "full-name", "", "new full name")
	edit.Flags().StringVar(&f.email, "email", "", "new email")
	edit.Flags().StringVar(&f.homeCity, "home-city", "", "new home city")
	edit.Flags().StringVar(&f.picture, "picture", "", "path to a new profile picture")

	profile.AddCommand(edit)
	return profile
}

// update собирает изменения только из явно заданных флагов
func (f *profileFlags) update(cmd *cobra.Command) (users.ProfileUpdate, error) {
	var upd users.ProfileUpdate
	flags := cmd.Flags()
	if flags.Changed("full-name") {
		upd.FullName = &f.fullName
	}
	if flags.Changed("email") {
		upd.Email = &f.email
	}
	if flags.Changed("home-city") {
		upd.HomeCity = &f.homeCity
	}

	picture, err := readFile(f.picture)
	if err != nil {
		return upd, err
	}
	upd.Picture = picture

	if upd == (users.ProfileUpdate{}) {
		return upd, fmt.Errorf("nothing to update: pass at least one flag")
	}
	return upd, nil
}

func (c *Cli) runEditProfile(ctx context.Context, upd users.ProfileUpdate) error {
	if err := c.checkCity(ctx, upd.HomeCity); err != nil {
		return err
	}

	user, err := wait(ctx, c.users.EditProfile(ctx, upd))
	if err != nil {
		return fmt.Errorf("failed to edit profile: %w", err)
	}
	c.io.Println("✓ Profile updated")
	return c.render(c.io, "profile", user)
}
