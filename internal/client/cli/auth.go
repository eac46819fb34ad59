package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophchat/internal/client/auth"
	"github.com/iudanet/gophchat/internal/validation"
)

func (c *Cli) runSignup(ctx context.Context) error {
	c.io.Println("=== Signup ===")
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
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	authData, err := c.auth.Signup(ctx, fullName, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Signup successful!")
	c.io.Printf("User ID: %s\n", authData.UserID)
	c.io.Printf("Logged in as %s <%s>\n", authData.FullName, authData.Email)

	return nil
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println("Authenticating...")

	authData, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Logged in as %s <%s>\n", authData.FullName, authData.Email)
	c.io.Printf("Session expires: %s\n", time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))

	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")

	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.auth.Session(ctx)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'gophchat login' to authenticate.")
		return nil
	case errors.Is(err, auth.ErrSessionExpired):
		c.io.Printf("User: %s <%s>\n", authData.FullName, authData.Email)
		c.io.Println("⚠️  Token has expired. Please login again.")
		return nil
	case err != nil:
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	expiresAt := time.Unix(authData.ExpiresAt, 0)

	c.io.Println("Status: Authenticated")
	c.io.Printf("User: %s <%s>\n", authData.FullName, authData.Email)
	c.io.Printf("User ID: %s\n", authData.UserID)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	c.io.Printf("Time remaining: %s\n", time.Until(expiresAt).Round(time.Second))

	return nil
}
