package database

import (
	"fmt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"milk2meat/internal/config"
	"milk2meat/internal/logging"
	"milk2meat/internal/models"
	"net/url"
)

// migrated models, in dependency order
var migrations = []any{
	&models.User{},
	&models.Book{},
	&models.NoteType{},
	&models.Tag{},
	&models.Note{},
}

func InitDatabase(c *config.Configuration, l logging.Logger) (*gorm.DB, error) {
	l.LogInfo(logging.GetLogTypeInitialization(), "Initializing Database")

	dsn := url.URL{
		User:     url.UserPassword(c.Database.Username, c.Database.Password),
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.DatabaseName,
		RawQuery: (&url.Values{"sslmode": []string{c.Database.SslMode}}).Encode(),
	}

	// PostgresSQL
	db, err := gorm.Open(
		postgres.Open(dsn.String()),
		&gorm.Config{
			Logger: logging.InitGormLogger(c),
			// unique violations surface as gorm.ErrDuplicatedKey
			TranslateError: true,
		})

	if err != nil {
		l.LogErrorf(logging.GetLogTypeInitialization(), "error initializing database: %v", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.LogErrorf(logging.GetLogTypeInitialization(), "error setting connection properties on db conn pool")
		return nil, err
	}
	sqlDB.SetMaxIdleConns(c.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.Database.ConnMaxLifetime.Duration)

	l.LogDebug(logging.GetLogTypeInitialization(), "connected to Database")

	for _, m := range migrations {
		err = db.AutoMigrate(m)
		if err != nil {
			l.LogErrorf(logging.GetLogTypeInitialization(), "error auto migrating %T: %v", m, err)
			return nil, err
		}
	}

	return db, nil
}
