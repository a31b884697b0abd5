// Package dbtest opens migrated in-memory SQLite databases and seeds catalog
// fixtures for repository and service tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
)

// Open returns a fresh, fully migrated database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:shopcore_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// TxRunner runs service transactions directly on a test database.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// VariantSpec describes a variant fixture.
type VariantSpec struct {
	CategoryID  uuid.UUID
	Price       int64
	Stock       int
	Unavailable bool
}

// SeedCategory inserts a category.
func SeedCategory(t testing.TB, db *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name + "-" + uuid.NewString()[:8]}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

// SeedVariant inserts a product, a variant and its inventory row.
func SeedVariant(t testing.TB, db *gorm.DB, spec VariantSpec) models.ProductVariant {
	t.Helper()
	if spec.CategoryID == uuid.Nil {
		spec.CategoryID = SeedCategory(t, db, "general").ID
	}
	product := models.Product{
		CategoryID: spec.CategoryID,
		Title:      "product",
		Available:  !spec.Unavailable,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{
		ProductID:  product.ID,
		SKU:        "SKU-" + uuid.NewString(),
		Title:      "variant",
		Price:      spec.Price,
		Attributes: models.Attributes{"size": "M"},
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	if err := db.Create(&models.Inventory{VariantID: variant.ID, Quantity: spec.Stock}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	variant.Product = &product
	return variant
}

// SeedDiscount inserts an active discount valid around now.
func SeedDiscount(t testing.TB, db *gorm.DB, pct int64, variantIDs, categoryIDs []uuid.UUID) models.Discount {
	t.Helper()
	now := time.Now().UTC()
	discount := models.Discount{
		Description: "seeded",
		Percentage:  decimal.NewFromInt(pct),
		ValidFrom:   now.Add(-time.Hour),
		ValidTo:     now.Add(time.Hour),
		Active:      true,
	}
	for _, id := range variantIDs {
		discount.Variants = append(discount.Variants, models.DiscountVariant{VariantID: id})
	}
	for _, id := range categoryIDs {
		discount.Categories = append(discount.Categories, models.DiscountCategory{CategoryID: id})
	}
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("seed discount: %v", err)
	}
	return discount
}

// CouponSpec describes a coupon fixture. Zero windows default to one hour around now.
type CouponSpec struct {
	Code        string
	Percentage  int
	UsageLimit  int
	UsageCount  int
	Inactive    bool
	ValidFrom   time.Time
	ValidTo     time.Time
	VariantIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
}

// SeedCoupon inserts a coupon.
func SeedCoupon(t testing.TB, db *gorm.DB, spec CouponSpec) models.Coupon {
	t.Helper()
	now := time.Now().UTC()
	if spec.Code == "" {
		spec.Code = "C" + uuid.NewString()[:8]
	}
	if spec.UsageLimit == 0 {
		spec.UsageLimit = 10
	}
	if spec.ValidFrom.IsZero() {
		spec.ValidFrom = now.Add(-time.Hour)
	}
	if spec.ValidTo.IsZero() {
		spec.ValidTo = now.Add(time.Hour)
	}
	coupon := models.Coupon{
		Code:       spec.Code,
		Percentage: spec.Percentage,
		ValidFrom:  spec.ValidFrom,
		ValidTo:    spec.ValidTo,
		Active:     !spec.Inactive,
		UsageLimit: spec.UsageLimit,
		UsageCount: spec.UsageCount,
	}
	for _, id := range spec.VariantIDs {
		coupon.Variants = append(coupon.Variants, models.CouponVariant{VariantID: id})
	}
	for _, id := range spec.CategoryIDs {
		coupon.Categories = append(coupon.Categories, models.CouponCategory{CategoryID: id})
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return coupon
}

// SeedAddress inserts an address owned by userID.
func SeedAddress(t testing.TB, db *gorm.DB, userID uuid.UUID) models.Address {
	t.Helper()
	address := models.Address{
		UserID:     userID,
		Recipient:  "Test Recipient",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
	}
	if err := db.Create(&address).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return address
}

// Stock reads the current inventory quantity for a variant.
func Stock(t testing.TB, db *gorm.DB, variantID uuid.UUID) int {
	t.Helper()
	var inv models.Inventory
	if err := db.First(&inv, "variant_id = ?", variantID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return inv.Quantity
}
