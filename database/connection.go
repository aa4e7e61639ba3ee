package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Databases holds the two domain datastores. Movies and mangas live in
// separate databases so either library can be rebuilt without touching
// the other.
type Databases struct {
	Movies *sql.DB
	Mangas *sql.DB
}

func Connect(movieURL, mangaURL string) (*Databases, error) {
	movies, err := open(movieURL)
	if err != nil {
		return nil, fmt.Errorf("movie database: %w", err)
	}

	mangas, err := open(mangaURL)
	if err != nil {
		movies.Close()
		return nil, fmt.Errorf("manga database: %w", err)
	}

	return &Databases{Movies: movies, Mangas: mangas}, nil
}

func open(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Pool limits to prevent "too many clients" errors from PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func (d *Databases) Close() {
	if d.Movies != nil {
		d.Movies.Close()
	}
	if d.Mangas != nil {
		d.Mangas.Close()
	}
}

// Ping checks both datastores; used by the health endpoint.
func (d *Databases) Ping(ctx context.Context) map[string]string {
	status := map[string]string{"movies": "ok", "mangas": "ok"}
	if err := d.Movies.PingContext(ctx); err != nil {
		status["movies"] = err.Error()
	}
	if err := d.Mangas.PingContext(ctx); err != nil {
		status["mangas"] = err.Error()
	}
	return status
}
