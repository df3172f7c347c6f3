package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/envutil"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

// Store owns the gorm handle. SQLite is the default so the service runs with
// zero infrastructure; DB_DRIVER=postgres switches to a shared database.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStore(log *logger.Logger) (*Store, error) {
	serviceLog := log.With("service", "Store")

	driver := strings.ToLower(envutil.GetEnv("DB_DRIVER", "sqlite", log))
	var (
		db  *gorm.DB
		err error
	)
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	switch driver {
	case "sqlite":
		path := envutil.GetEnv("SQLITE_PATH", "mailsage.db", log)
		serviceLog.Info("Opening SQLite database", "path", path)
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
	case "postgres":
		host := envutil.GetEnv("POSTGRES_HOST", "localhost", log)
		port := envutil.GetEnv("POSTGRES_PORT", "5432", log)
		user := envutil.GetEnv("POSTGRES_USER", "postgres", log)
		password := envutil.GetEnv("POSTGRES_PASSWORD", "", log)
		name := envutil.GetEnv("POSTGRES_NAME", "mailsage", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		serviceLog.Info("Connecting to Postgres", "host", host, "database", name)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to open database", "driver", driver, "error", err)
		return nil, fmt.Errorf("open database (driver=%s): %w", driver, err)
	}

	return &Store{db: db, log: serviceLog}, nil
}

func (s *Store) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&domain.ExecutionRecord{},
		&domain.ThreatRecord{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
