package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialectors maps DATABASE_DRIVER values to gorm dialector constructors
var dialectors = map[string]func(dsn string) gorm.Dialector{
	DriverSQLite:   sqlite.Open,
	DriverPostgres: postgres.Open,
}

// GetDialector returns the gorm dialector for driver, opened on dsn
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	open, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return open(dsn), nil
}

// IsSupportedDriver reports whether driver can be passed to New
func IsSupportedDriver(driver string) bool {
	_, ok := dialectors[driver]
	return ok
}
