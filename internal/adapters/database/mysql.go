package database

import (
	"strings"

	"github.com/go-sql-driver/mysql"
)

func init() {
	register("mysql", engine{driver: "mysql", dsn: mysqlDSN})
}

// mysqlDSN accepts a driver DSN with an optional mysql:// prefix and enables time parsing.
func mysqlDSN(url string) (string, error) {
	cfg, err := mysql.ParseDSN(strings.TrimPrefix(url, "mysql://"))
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
