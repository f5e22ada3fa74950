package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/auth"
)

func (c *Cli) registerCommand() *cobra.Command {
	var picture string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runRegister(cmd.Context(), picture)
		},
	}
	cmd.Flags().StringVar(&picture, "picture", "", "path to a profile picture")
	return cmd
}

func (c *Cli) runRegister(ctx context.Context, picturePath string) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	fullName, err := c.io.ReadInput("Full name: ")
	if err != nil {
		return fmt.Errorf("failed to read full name: %w", err)
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	homeCity, err := c.io.ReadInput("Home city (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read home city: %w", err)
	}
	if err := c.checkCity(ctx, &homeCity); err != nil {
		return err
	}

	picture, err := readFile(picturePath)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Registering user...")

	user, err := wait(ctx, c.auth.Register(ctx, auth.RegisterRequest{
		Picture:  picture,
		FullName: fullName,
		Email:    email,
		Password: password,
		HomeCity: homeCity,
	}))
	if err != nil {
		if api.StatusCode(err) == http.StatusConflict {
			return fmt.Errorf("email %s is already registered", email)
		}
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Printf("Email:   %s\n", user.Email)
	c.io.Println()
	c.io.Println("Please run 'fitshare login' to start using the service.")
	return nil
}

func (c *Cli) loginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogin(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func (c *Cli) runLogin(ctx context.Context, email string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	var err error
	if email == "" {
		email, err = c.io.ReadInput("Email: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	if _, err := wait(ctx, c.auth.Login(ctx, email, password)); err != nil {
		return loginError(err)
	}
	return c.welcome(ctx)
}

func (c *Cli) googleLoginCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "google-login",
		Short: "Login with a Google ID token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runGoogleLogin(cmd.Context(), token)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Google ID token (prompted when empty)")
	return cmd
}

func (c *Cli) runGoogleLogin(ctx context.Context, token string) error {
	c.io.Println("=== Google Login ===")
	c.io.Println()

	if token == "" {
		if c.cfg.GoogleClientID != "" {
			c.io.Printf("Sign in with Google client %s and paste the ID token.\n", c.cfg.GoogleClientID)
		}
		var err error
		token, err = c.io.ReadPassword("Google ID token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if _, err := wait(ctx, c.auth.GoogleLogin(ctx, token)); err != nil {
		return loginError(err)
	}
	return c.welcome(ctx)
}

// welcome загружает профиль после входа и сохраняет его локально
func (c *Cli) welcome(ctx context.Context) error {
	c.types.Reset()

	user, err := wait(ctx, c.users.Me(ctx))
	if err != nil {
		return fmt.Errorf("logged in, but failed to load profile: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Welcome, %s <%s>\n", plain(user.FullName), user.Email)
	c.io.Println()
	c.io.Println("Your session has been saved.")
	return nil
}

// loginError заменяет 401 понятным сообщением
func loginError(err error) error {
	if api.IsUnauthorized(err) {
		return ErrIncorrectDetails
	}
	return err
}

func (c *Cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogout(cmd.Context())
		},
	}
}

func (c *Cli) runLogout(ctx context.Context) error {
	err := c.auth.Logout(ctx)
	c.types.Reset()

	switch {
	case errors.Is(err, api.ErrNotAuthenticated):
		c.io.Println("Not logged in.")
		return nil
	case err != nil:
		c.io.Println("✓ Local session removed")
		return err
	}

	c.io.Println("✓ Logged out")
	return nil
}

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStatus(cmd.Context(), time.Now())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context, now time.Time) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	st, err := c.auth.Status(ctx)
	if err != nil {
		return err
	}

	if !st.Authenticated {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'fitshare login' to authenticate.")
		return nil
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Server: %s\n", c.cfg.BaseURL)
	if st.User != nil {
		c.io.Printf("User:   %s <%s>\n", plain(st.User.FullName), st.User.Email)
	} else if st.Email != "" {
		c.io.Printf("Email:  %s\n", st.Email)
	}
	if st.UserID != "" {
		c.io.Printf("ID:     %s\n", st.UserID)
	}

	if st.Token == nil || st.Token.ExpiresAt.IsZero() {
		return nil
	}
	if st.Token.Expired(now) {
		c.io.Printf("Access token expired %s, it will be refreshed on the next request.\n",
			humanize.RelTime(st.Token.ExpiresAt, now, "ago", "from now"))
		return nil
	}
	c.io.Printf("Access token expires %s\n", humanize.RelTime(st.Token.ExpiresAt, now, "ago", "from now"))
	return nil
}
