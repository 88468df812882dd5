package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-compliance-api/pkg/config"
)

func TestConnectionStrings(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5433, User: "fleet", Password: "p@ss word", Name: "fleet", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5433 user=fleet password=p@ss word dbname=fleet sslmode=disable", DSN(cfg))
	assert.Equal(t, "postgres://fleet:p%40ss%20word@db:5433/fleet?sslmode=disable", URL(cfg))
}
