package users

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/bunx"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
)

var (
	emailFlag    string
	usernameFlag string
	passwordFlag string
	rolesInput   []string
	stdinFlag    bool
)

var validRoles = []string{auth.RoleAdmin, auth.RoleModerator, auth.RoleUser}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new console user",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validate required flags
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		if usernameFlag == "" {
			return fmt.Errorf("--username flag is required")
		}

		if len(rolesInput) == 0 {
			return fmt.Errorf("at least one role must be specified using --role")
		}

		if invalid := invalidRoles(rolesInput); len(invalid) > 0 {
			return fmt.Errorf("invalid role(s): %s\nValid roles are: %s",
				strings.Join(invalid, ", "),
				strings.Join(validRoles, ", "))
		}

		password := passwordFlag
		if stdinFlag {
			// Read password from stdin
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
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

		// Validate email format
		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if !cfg.InternalAuthEnabled() {
			return fmt.Errorf("local users require internal auth to be enabled (not available in production with an external identity provider)")
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := context.Background()
		userRepo := repository.NewBunUserRepository(db)

		// Check if email already exists
		existing, err := userRepo.GetByEmail(ctx, emailFlag)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("user with email %q already exists", emailFlag)
		}

		// Hash password with bcrypt
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		// Create user with hashed password, Subject=nil (local account marker)
		user := &models.User{
			ID:           uuid.NewString(),
			Email:        emailFlag,
			Name:         usernameFlag,
			PasswordHash: stringPtr(string(hashedPassword)),
			Subject:      nil,
			Roles:        models.StringList(rolesInput),
			Status:       models.UserStatusActive,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Println("User created successfully!")
		fmt.Println("----------------------------------------")
		fmt.Printf("User ID: %s\n", user.ID)
		fmt.Printf("Email: %s\n", user.Email)
		fmt.Printf("Username: %s\n", user.Name)
		fmt.Printf("Roles: %s\n", strings.Join(user.Roles, ", "))
		fmt.Println("----------------------------------------")

		return nil
	},
}

func stringPtr(s string) *string {
	return &s
}

func invalidRoles(requested []string) []string {
	var invalid []string
	for _, role := range requested {
		known := false
		for _, valid := range validRoles {
			if role == valid {
				known = true
				break
			}
		}
		if !known {
			invalid = append(invalid, role)
		}
	}
	return invalid
}
