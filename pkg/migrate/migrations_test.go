package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(Embedded, "migrations/*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1, "migration %s", suffix)
	data, err := fs.ReadFile(Embedded, matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))

	entries, err := fs.ReadDir(Embedded, "migrations")
	require.NoError(t, err)
	onDisk, err := os.ReadDir("migrations")
	require.NoError(t, err)
	assert.Equal(t, len(onDisk), len(entries))
}

func TestSchemaGuardsStockAndCoupons(t *testing.T) {
	catalog := readMigration(t, "create_catalog")
	for _, stmt := range []string{
		"CONSTRAINT chk_inventories_quantity CHECK (quantity >= 0)",
		"CONSTRAINT chk_discounts_percentage CHECK (percentage >= 0 AND percentage <= 100)",
		"FOREIGN KEY (variant_id) REFERENCES product_variants(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS inventories",
	} {
		assert.Contains(t, catalog, stmt)
	}

	carts := readMigration(t, "create_coupons_and_carts")
	for _, stmt := range []string{
		"CONSTRAINT ux_coupons_code UNIQUE (code)",
		"CONSTRAINT chk_coupons_percentage CHECK (percentage >= 0 AND percentage <= 80)",
		"CONSTRAINT ux_carts_user UNIQUE (user_id)",
		"CONSTRAINT ux_cart_items_cart_variant UNIQUE (cart_id, variant_id)",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
	} {
		assert.Contains(t, carts, stmt)
	}

	orders := readMigration(t, "create_orders_and_payments")
	for _, stmt := range []string{
		"CONSTRAINT ux_orders_transaction_id UNIQUE (transaction_id)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CONSTRAINT ux_payments_order UNIQUE (order_id)",
	} {
		assert.Contains(t, orders, stmt)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Gift Cards!", now)
	require.NoError(t, err)
	assert.Equal(t, "20260302100000_add_gift_cards.sql", filepath.Base(path))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestCreateSQLMigrationStaysAfterNewestVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	first, err := CreateSQLMigration(dir, "coupons index", now)
	require.NoError(t, err)
	second, err := CreateSQLMigration(dir, "orders index", now.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "20260302100000_coupons_index.sql", filepath.Base(first))
	assert.Equal(t, "20260302100001_orders_index.sql", filepath.Base(second))
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x ();\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260302100000_swap.sql"), []byte(body), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "down section precedes up")
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}
