package app

import (
	"fmt"

	"github.com/mailsage/mailsage-backend/internal/db"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

// wireStore opens the relational sink (sqlite by default, postgres via
// DB_DRIVER) and migrates its schema.
func wireStore(log *logger.Logger) (*db.Store, error) {
	store, err := db.NewStore(log)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("store automigrate: %w", err)
	}
	return store, nil
}
