package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool sizing for an auth workload: every login and refresh runs one or two
// short statements, so the pool favors many small connections over long-held
// ones. Idle connections are kept low; refresh traffic is bursty and the
// driver reopens cheaply.
const (
	maxOpenConns    = 40
	maxIdleConns    = 10
	connMaxLifetime = 15 * time.Minute
	pingTimeout     = 5 * time.Second
)

// dsn builds the driver connection string. parseTime maps DATETIME columns
// onto time.Time; loc=UTC keeps the token ledger's expiry comparisons in one
// zone.
func dsn(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// Open connects to MySQL and verifies the connection before handing it out.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
