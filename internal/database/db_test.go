package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	got := dsn("auth", "s3cret", "db.internal", "3306", "modacart_auth")
	assert.Equal(t,
		"auth:s3cret@tcp(db.internal:3306)/modacart_auth?charset=utf8mb4&parseTime=true&loc=UTC",
		got)
}

func TestDSNEmptyPasswordOmitsColon(t *testing.T) {
	got := dsn("root", "", "localhost", "3306", "modacart_auth")
	assert.Equal(t,
		"root@tcp(localhost:3306)/modacart_auth?charset=utf8mb4&parseTime=true&loc=UTC",
		got)
}
