package database

import (
	"strings"

	"github.com/lib/pq"
)

func init() {
	register("postgres", engine{driver: "postgres", dsn: postgresDSN})
}

// postgresDSN converts postgres:// URLs into the driver's keyword form.
func postgresDSN(url string) (string, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return pq.ParseURL(url)
	}
	return url, nil
}
