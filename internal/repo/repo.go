package repo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"imdcheck/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the reference dataset. SQLite files are opened read-only.
func Connect(driver string, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(readOnlyDSN(dsn))
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

// VerifyDataset checks that both reference tables are present. The dataset
// is built elsewhere; this service never creates or migrates it.
func VerifyDataset(db *gorm.DB, postcodeTable string, deprivationTable string) error {
	if db == nil {
		return errors.New("db is nil")
	}

	migrator := db.Migrator()
	for _, table := range []string{postcodeTable, deprivationTable} {
		if table == "" {
			return errors.New("table name is empty")
		}
		if !migrator.HasTable(table) {
			return fmt.Errorf("dataset table %s is missing", table)
		}
	}

	return nil
}

// readOnlyDSN turns a SQLite path or file: URI into a URI with mode=ro,
// replacing any other mode. In-memory databases are left alone.
func readOnlyDSN(dsn string) string {
	if strings.Contains(dsn, ":memory:") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	path, rawQuery, _ := strings.Cut(dsn, "?")
	// Malformed pairs are dropped; the valid ones are kept.
	params, _ := url.ParseQuery(rawQuery)
	params.Set("mode", "ro")

	return path + "?" + params.Encode()
}
