package database

import (
	"errors"
	"os"

	"github.com/thereayou/lazycord/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	d.db = db

	return nil
}

// Migrate создаёт схему; вынесено отдельно, чтобы тесты могли поднять её
// над другим драйвером
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.ChannelMembership{},
		&models.ChannelBan{},
		&models.ChannelMute{},
		&models.Message{},
		&models.Notification{},
	)
}
