package database

import (
	"crowdx-backend/internal/models"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration is one step of the schema log. Up must be safe to run against
// a schema that already contains its change.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Migrations is the ordered schema history.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users",
		Up: func(tx *gorm.DB) error {
			return createTableIfMissing(tx, &models.User{})
		},
	},
	{
		Version: 2,
		Name:    "create_campaigns",
		Up: func(tx *gorm.DB) error {
			return createTableIfMissing(tx, &models.Campaign{})
		},
	},
	{
		Version: 3,
		Name:    "create_campaign_entries",
		Up: func(tx *gorm.DB) error {
			return createTableIfMissing(tx, &models.CampaignEntry{})
		},
	},
	{
		Version: 4,
		Name:    "add_users_phone_number",
		Up: func(tx *gorm.DB) error {
			return addColumnsIfMissing(tx, &models.User{}, "PhoneNumber")
		},
	},
	{
		Version: 5,
		Name:    "add_campaign_entries_audit",
		Up: func(tx *gorm.DB) error {
			return addColumnsIfMissing(tx, &models.CampaignEntry{},
				"AmountBefore", "AmountAfter", "IPAddress", "DeviceInfo", "Hash")
		},
	},
}

// Migrate applies every step of the log not yet recorded in
// schema_migrations, in version order, each in its own transaction.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	return apply(db, Migrations, log)
}

func apply(db *gorm.DB, steps []Migration, log *zap.Logger) error {
	if err := checkOrder(steps); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var rows []models.SchemaMigration
	if err := db.Find(&rows).Error; err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[int]bool, len(rows))
	for _, r := range rows {
		applied[r.Version] = true
	}

	for _, m := range steps {
		if applied[m.Version] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %04d_%s: %w", m.Version, m.Name, err)
		}
		log.Info("applied migration", zap.Int("version", m.Version), zap.String("name", m.Name))
	}
	return nil
}

// SchemaVersion returns the highest applied version, 0 on a fresh database.
func SchemaVersion(db *gorm.DB) (int, error) {
	if !db.Migrator().HasTable(&models.SchemaMigration{}) {
		return 0, nil
	}
	var version int
	err := db.Model(&models.SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&version).Error
	return version, err
}

func checkOrder(steps []Migration) error {
	last := 0
	for _, m := range steps {
		if m.Version <= last {
			return fmt.Errorf("migration %d (%s) is out of order", m.Version, m.Name)
		}
		last = m.Version
	}
	return nil
}

func createTableIfMissing(tx *gorm.DB, model interface{}) error {
	if tx.Migrator().HasTable(model) {
		return nil
	}
	return tx.Migrator().CreateTable(model)
}

func addColumnsIfMissing(tx *gorm.DB, model interface{}, fields ...string) error {
	m := tx.Migrator()
	for _, f := range fields {
		if m.HasColumn(model, f) {
			continue
		}
		if err := m.AddColumn(model, f); err != nil {
			return err
		}
	}
	return nil
}
