package database

import (
	"database/sql"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS content_items (
		id TEXT PRIMARY KEY,
		page TEXT NOT NULL,
		section TEXT NOT NULL,
		content_key TEXT NOT NULL,
		content_value TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		UNIQUE (page, section, content_key)
	)`,
	`CREATE TABLE IF NOT EXISTS media_files (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		path TEXT NOT NULL,
		url TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mime_type TEXT NOT NULL DEFAULT '',
		alt_text TEXT NOT NULL DEFAULT '',
		uploaded_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category_id TEXT REFERENCES categories(id),
		image_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS project_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		icon_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category_id TEXT REFERENCES project_categories(id),
		image_url TEXT
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_content_items_page ON content_items(page)`,
	`CREATE INDEX IF NOT EXISTS idx_media_files_path ON media_files(path)`,
}

// TableCreator creates the tables this service reads when they are missing.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
