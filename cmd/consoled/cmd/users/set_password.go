package users

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/bunx"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
)

var (
	setPasswordEmail string
	setPasswordValue string
	setPasswordStdin bool
)

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Set or reset a console user's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if setPasswordEmail == "" {
			return fmt.Errorf("--email flag is required")
		}

		password := setPasswordValue
		if setPasswordStdin {
			// Read password from stdin
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter new password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if !cfg.InternalAuthEnabled() {
			return fmt.Errorf("local passwords require internal auth to be enabled (not available in production with an external identity provider)")
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := context.Background()
		userRepo := repository.NewBunUserRepository(db)

		user, err := userRepo.GetByEmail(ctx, setPasswordEmail)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no user with email %q", setPasswordEmail)
			}
			return fmt.Errorf("failed to look up user: %w", err)
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		if err := userRepo.SetPasswordHash(ctx, user.ID, string(hashedPassword)); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		fmt.Println("Password updated successfully!")
		fmt.Printf("User ID: %s\n", user.ID)
		fmt.Printf("Email: %s\n", user.Email)

		return nil
	},
}
