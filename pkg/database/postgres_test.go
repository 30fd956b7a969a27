package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/exam-registration-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "exam",
		Password: "secret",
		Name:     "exams",
		SSLMode:  "disable",
	}

	dsn := DSN(cfg)
	assert.Equal(t, "host=db port=5433 user=exam password=secret dbname=exams sslmode=disable application_name=exam-registration-api", dsn)

	cfg.LockTimeout = 3 * time.Second
	assert.Contains(t, DSN(cfg), "options='-c lock_timeout=3000'")
}
