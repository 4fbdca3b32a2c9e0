// Package gormstore implements the stores on MySQL through gorm. Set-valued
// fields live in edge tables; toggles lock the parent row for the length of
// a transaction.
package gormstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/inkpress/store"
)

// DB wraps a gorm handle.
type DB struct {
	gorm *gorm.DB
}

// Open connects to MySQL, tunes the pool and migrates the schema.
func Open(dsn, logLevel string) (*DB, error) {
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}

	d := New(db)
	if err := d.Migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *DB {
	return &DB{gorm: db}
}

// Migrate creates missing tables and columns.
func (d *DB) Migrate() error {
	if err := d.gorm.AutoMigrate(
		&userRow{}, &followingRow{}, &followerRow{}, &savedRow{},
		&blogRow{}, &likeRow{}, &commentRow{}, &reportRow{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Users returns the user store.
func (d *DB) Users() store.UserStore { return &UserStore{db: d.gorm} }

// Blogs returns the blog store.
func (d *DB) Blogs() store.BlogStore { return &BlogStore{db: d.gorm} }

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toGormLogLevel maps the application log level to gorm's.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// newID returns a time-ordered id so ties on created_at still sort by age.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
