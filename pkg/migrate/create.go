package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- TODO(%[1]s): forward statements
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- TODO(%[1]s): reverse the Up section
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration into dir. Its version
// is now in UTC, bumped past the newest existing file so a skewed clock
// never produces an out of order migration.
func CreateSQLMigration(dir, name string, now time.Time) (string, error) {
	slug := strings.Trim(nameSanitizeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := scanDir(dir)
	if err != nil {
		return "", err
	}
	version := now.UTC().Truncate(time.Second)
	if n := len(existing); n > 0 {
		latest, err := time.Parse(versionLayout, existing[n-1].version)
		if err != nil {
			return "", fmt.Errorf("parse version of %s: %w", existing[n-1].path, err)
		}
		if !version.After(latest) {
			version = latest.Add(time.Second)
		}
	}

	path := filepath.Join(dir, version.Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := fmt.Fprintf(f, sqlTemplate, slug); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, f.Close()
}
