// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/GreenNest/GreenNest/internal/config"
)

// MySQL builds the go-sql-driver Data Source Name from the configuration.
// The same string serves gorm and the mysql session storage.
func MySQL(dbCfg *config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Name,
	)

	if dbCfg.Extras != "" {
		out += "?" + dbCfg.Extras
	}

	return out
}

// Postgres builds a postgres:// connection URI from the configuration.
func Postgres(dbCfg *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbCfg.User, dbCfg.Password),
		Host:     dbCfg.Host,
		Path:     "/" + dbCfg.Name,
		RawQuery: dbCfg.Extras,
	}

	if dbCfg.Port != 0 {
		u.Host += ":" + strconv.Itoa(dbCfg.Port)
	}

	return u.String()
}
