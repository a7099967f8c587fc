package db

import (
	"fmt"

	"contacthub/internal/auth"
	"contacthub/internal/contact"
	"contacthub/internal/jobs"
	"contacthub/internal/role"
	"contacthub/internal/webhook"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&role.UserRole{},
		&contact.Contact{},
		&contact.Event{},
		&webhook.Setting{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Owner-scoped listing is always newest first.
	stmts := []string{
		`create index if not exists idx_contacts_owner_created on contacts(owner_id, created_at desc);`,
		`create index if not exists idx_contacts_tags on contacts using gin (tags);`,
		`create index if not exists idx_contact_events_user on contact_events(user_id, id desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
