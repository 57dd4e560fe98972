package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frostcrinkle/bakery-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestInitSchemaContainsCheckoutConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_payment_order_id ON orders(payment_order_id)",
		"provider_order_id text NOT NULL UNIQUE",
		"CHECK (stock >= 0)",
		"CHECK (quantity > 0)",
		"ux_cart_records_active_per_customer",
		"WHERE published_at IS NULL",
		"DROP TABLE IF EXISTS orders",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("init schema missing %q", check)
		}
	}
}
