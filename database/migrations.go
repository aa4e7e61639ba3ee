package database

import (
	"fmt"
)

// RunMigrations creates the schema on both datastores. Everything is
// CREATE IF NOT EXISTS so restarting against an existing database is safe.
// Ingest (the scanner) and relation precomputation happen outside this
// service; it only ever writes the liked/favorited flags and collections.
func RunMigrations(dbs *Databases) error {
	if err := runMovieMigrations(dbs); err != nil {
		return err
	}
	return runMangaMigrations(dbs)
}

func runMovieMigrations(dbs *Databases) error {
	moviesSQL := `
	CREATE TABLE IF NOT EXISTS movies (
		id SERIAL PRIMARY KEY,
		douban_id VARCHAR(50) DEFAULT '',
		title VARCHAR(255) NOT NULL,
		original_title VARCHAR(255) DEFAULT '',
		plot TEXT DEFAULT '',
		rating REAL DEFAULT 0,
		runtime INTEGER DEFAULT 0,
		studio VARCHAR(255) DEFAULT '',
		premiered VARCHAR(50) DEFAULT '',
		set_name VARCHAR(255) DEFAULT '',
		genres TEXT DEFAULT '',
		tags TEXT DEFAULT '',
		actors TEXT DEFAULT '',
		directors TEXT DEFAULT '',
		poster_path VARCHAR(512) DEFAULT '',
		fanart_path VARCHAR(512) DEFAULT '',
		streams TEXT DEFAULT '',
		liked INTEGER DEFAULT 0,
		library VARCHAR(255) DEFAULT '',
		item_type VARCHAR(50) DEFAULT 'Movie',
		scanned_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_movies_douban_id ON movies (douban_id);
	CREATE INDEX IF NOT EXISTS idx_movies_title ON movies (title);
	`
	if _, err := dbs.Movies.Exec(moviesSQL); err != nil {
		return fmt.Errorf("failed to run movies migration: %w", err)
	}

	relationsSQL := `
	CREATE TABLE IF NOT EXISTS movie_relations (
		movie_id INTEGER NOT NULL,
		related_id INTEGER NOT NULL,
		score REAL DEFAULT 0,
		relation VARCHAR(50) NOT NULL,
		PRIMARY KEY (movie_id, related_id, relation)
	);
	CREATE INDEX IF NOT EXISTS idx_relations_movie ON movie_relations (movie_id, relation);
	`
	if _, err := dbs.Movies.Exec(relationsSQL); err != nil {
		return fmt.Errorf("failed to run relations migration: %w", err)
	}

	collectionsSQL := `
	CREATE TABLE IF NOT EXISTS collections (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS collection_movies (
		collection_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL,
		PRIMARY KEY (collection_id, movie_id)
	);
	CREATE TABLE IF NOT EXISTS actor_thumbs (
		name VARCHAR(255) NOT NULL,
		thumb_path VARCHAR(512) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actor_thumbs_name ON actor_thumbs (name);
	`
	if _, err := dbs.Movies.Exec(collectionsSQL); err != nil {
		return fmt.Errorf("failed to run collections migration: %w", err)
	}

	return nil
}

func runMangaMigrations(dbs *Databases) error {
	mangasSQL := `
	CREATE TABLE IF NOT EXISTS mangas (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) DEFAULT '',
		path VARCHAR(512) NOT NULL,
		cover VARCHAR(255) DEFAULT '',
		pages TEXT DEFAULT '',
		page_count INTEGER DEFAULT 0,
		favorited INTEGER DEFAULT 0,
		parent_id INTEGER,
		scanned_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_mangas_parent ON mangas (parent_id);
	CREATE INDEX IF NOT EXISTS idx_mangas_title ON mangas (title);

	CREATE TABLE IF NOT EXISTS manga_collections (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS manga_collection_items (
		collection_id INTEGER NOT NULL,
		manga_id INTEGER NOT NULL,
		PRIMARY KEY (collection_id, manga_id)
	);
	`
	if _, err := dbs.Mangas.Exec(mangasSQL); err != nil {
		return fmt.Errorf("failed to run mangas migration: %w", err)
	}

	return nil
}
