package gormrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DialectorFactory builds a gorm.Dialector from a DSN.
type DialectorFactory func(dsn string) (gorm.Dialector, error)

var (
	dialectorsMu sync.RWMutex
	dialectors   = make(map[string]DialectorFactory)
)

// RegisterDialector registers the factory used for a repository type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorsMu.Lock()
	defer dialectorsMu.Unlock()
	dialectors[dbType] = factory
}

// NewDialector returns the dialector registered for dbType.
func NewDialector(dbType, dsn string) (gorm.Dialector, error) {
	dialectorsMu.RLock()
	factory, ok := dialectors[dbType]
	dialectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %s", dbType)
	}
	return factory(dsn)
}

func init() {
	RegisterDialector("sqlite", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory for SQLite database '%s': %w", dsn, err)
			}
		}
		return sqlite.Open(dsn), nil
	})
	RegisterDialector("mysql", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("MySQL DSN cannot be empty")
		}
		return mysql.Open(dsn), nil
	})
	RegisterDialector("postgres", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("PostgreSQL DSN cannot be empty")
		}
		return postgres.Open(dsn), nil
	})
}
