package migrations

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

const defaultAdminEmail = "admin@resumatch.io"

func init() {
	Migrations.MustRegister(up_20250812000002, down_20250812000002)
}

// up_20250812000002 seeds the bootstrap admin account. The password
// comes from ADMIN_PASSWORD; when unset the account is created without
// local credentials and must be activated via `consoled users create`.
func up_20250812000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding bootstrap admin...")

	admin := models.User{
		ID:     uuid.NewString(),
		Email:  defaultAdminEmail,
		Name:   "Console Admin",
		Roles:  models.StringList{auth.RoleAdmin},
		Status: models.UserStatusActive,
	}

	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		hashStr := string(hash)
		admin.PasswordHash = &hashStr
	}

	_, err := db.NewInsert().
		Model(&admin).
		On("CONFLICT (email) DO NOTHING"). // Idempotent
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20250812000002 removes the bootstrap admin.
func down_20250812000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing bootstrap admin...")
	_, err := db.NewDelete().
		Model((*models.User)(nil)).
		Where("email = ?", defaultAdminEmail).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove admin user: %w", err)
	}
	fmt.Println(" OK")
	return nil
}
