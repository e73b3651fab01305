package storage

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// mysqlDSN forces the driver options the store relies on: DATETIME columns
// scanned as time.Time, in UTC.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
