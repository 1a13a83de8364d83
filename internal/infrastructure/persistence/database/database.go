// Package database provides the core functionality for creating and managing
// content store connections.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// Options configures a content store connection.
type Options struct {
	Driver       string
	URL          string
	AuthToken    string
	MaxOpenConns int
	MaxIdleConns int
}

// DataSourceName builds the driver-specific DSN.
func (o Options) DataSourceName() string {
	if o.Driver == DriverLibSQL && o.AuthToken != "" {
		sep := "?"
		if strings.Contains(o.URL, "?") {
			sep = "&"
		}
		return o.URL + sep + "authToken=" + o.AuthToken
	}
	return o.URL
}

// NewConnectionWithLogger establishes a new database connection with logging.
func NewConnectionWithLogger(opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()

	switch opts.Driver {
	case DriverSQLite, DriverLibSQL:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	logger.Database().Debug("Creating new database connection", "driverName", opts.Driver)

	db, err := sql.Open(opts.Driver, opts.DataSourceName())
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", opts.Driver)
		return nil, fmt.Errorf("failed to open %s connection: %w", opts.Driver, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", opts.Driver)
		return nil, fmt.Errorf("failed to reach %s database: %w", opts.Driver, err)
	}

	logger.Database().Info("Database connection established", "driverName", opts.Driver, "duration", time.Since(start))
	return &DB{DB: db, Driver: opts.Driver}, nil
}
