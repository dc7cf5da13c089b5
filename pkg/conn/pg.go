// Package conn opens database connections for the persistence layer.
package conn

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultHost     = "localhost"
	defaultPort     = 5432
	defaultDatabase = "alphaflow"
	defaultSSLMode  = "disable"
)

// PostgresConfig describes a PostgreSQL connection. ConnString, when
// set, wins over the individual fields.
type PostgresConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
	Gorm       *gorm.Config
}

// OpenPostgres opens a gorm handle to PostgreSQL.
func OpenPostgres(cfg PostgresConfig) (*gorm.DB, error) {
	gormCfg := cfg.Gorm
	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	return gorm.Open(postgres.Open(cfg.dsn()), gormCfg)
}

func (cfg PostgresConfig) dsn() string {
	if cfg.ConnString != "" {
		return cfg.ConnString
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()
	return u.String()
}
