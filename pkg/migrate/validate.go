package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// RequiredTables are the tables the services read and write. A migration set that
// never creates one of them cannot back a deployment.
var RequiredTables = []string{
	"wishlists",
	"wishes",
	"outbound_clicks",
	"outbox_events",
	"outbox_dlq",
}

// ValidateDir checks the migrations in dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(Source(dir))
}

// ValidateFS checks file names, versions and goose sections of every .sql file in fsys.
func ValidateFS(fsys fs.FS) error {
	return validate(fsys, false)
}

// ValidateEmbedded checks the compiled-in set and that it creates RequiredTables.
func ValidateEmbedded() error {
	return validate(Embedded(), true)
}

func validate(fsys fs.FS, requireTables bool) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	seen := map[string]string{}
	created := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		up, down, ok := splitSections(string(b))
		if !ok {
			return fmt.Errorf("migration %q needs \"-- +goose Up\" followed by \"-- +goose Down\"", name)
		}
		if strings.TrimSpace(down) == "" {
			return fmt.Errorf("migration %q has an empty down section", name)
		}
		for _, table := range RequiredTables {
			if strings.Contains(up, "CREATE TABLE IF NOT EXISTS "+table+" ") ||
				strings.Contains(up, "CREATE TABLE "+table+" ") {
				created[table] = true
			}
		}
	}

	if !requireTables {
		return nil
	}
	for _, table := range RequiredTables {
		if !created[table] {
			return fmt.Errorf("no migration creates table %q", table)
		}
	}
	return nil
}

func splitSections(txt string) (up, down string, ok bool) {
	upAt := strings.Index(txt, "-- +goose Up")
	downAt := strings.Index(txt, "-- +goose Down")
	if upAt < 0 || downAt < 0 || downAt < upAt {
		return "", "", false
	}
	return txt[upAt:downAt], txt[downAt+len("-- +goose Down"):], true
}
