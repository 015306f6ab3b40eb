package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20250812000001, down_20250812000001)
}

// up_20250812000001 creates the full console schema.
func up_20250812000001(ctx context.Context, db *bun.DB) error {
	// 1. Users
	fmt.Print(" [up] creating users table...")
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_users_status ON users(status)`)
	if err != nil {
		return fmt.Errorf("failed to create index on users.status: %w", err)
	}
	fmt.Println(" OK")

	// 2. Resumes
	fmt.Print(" [up] creating resumes table...")
	q := db.NewCreateTable().
		Model((*models.Resume)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		// SQLite only honours FKs declared at table creation.
		q = q.ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create resumes table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_resumes_user_id ON resumes(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on resumes.user_id: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_resumes_status ON resumes(status)`)
	if err != nil {
		return fmt.Errorf("failed to create index on resumes.status: %w", err)
	}
	fmt.Println(" OK")

	// 3. Jobs
	fmt.Print(" [up] creating jobs table...")
	_, err = db.NewCreateTable().
		Model((*models.Job)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`)
	if err != nil {
		return fmt.Errorf("failed to create index on jobs.status: %w", err)
	}
	fmt.Println(" OK")

	// 4. Skills
	fmt.Print(" [up] creating skills table...")
	_, err = db.NewCreateTable().
		Model((*models.Skill)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create skills table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_skills_usage_count ON skills(usage_count)`)
	if err != nil {
		return fmt.Errorf("failed to create index on skills.usage_count: %w", err)
	}
	fmt.Println(" OK")

	// 5. Payments
	fmt.Print(" [up] creating payments table...")
	q = db.NewCreateTable().
		Model((*models.Payment)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on payments.user_id: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`)
	if err != nil {
		return fmt.Errorf("failed to create index on payments.status: %w", err)
	}
	fmt.Println(" OK")

	// Declarative FKs for Postgres, added after creation.
	if IsPostgreSQL(db) {
		fmt.Print(" [up] adding foreign keys...")
		_, err = db.Exec(`
			ALTER TABLE resumes
			ADD CONSTRAINT fk_resumes_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		`)
		if err != nil {
			return fmt.Errorf("failed to add resumes FK: %w", err)
		}
		_, err = db.Exec(`
			ALTER TABLE payments
			ADD CONSTRAINT fk_payments_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		`)
		if err != nil {
			return fmt.Errorf("failed to add payments FK: %w", err)
		}
		fmt.Println(" OK")
	}

	return nil
}

// down_20250812000001 drops the console schema.
func down_20250812000001(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{
		(*models.Payment)(nil),
		(*models.Skill)(nil),
		(*models.Job)(nil),
		(*models.Resume)(nil),
		(*models.User)(nil),
	} {
		_, err := db.NewDropTable().
			Model(model).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
