package models

import "github.com/google/uuid"

// assignID gives rows a client side id so both Postgres and SQLite behave the same.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&ProductVariant{},
		&Inventory{},
		&Discount{},
		&DiscountVariant{},
		&DiscountCategory{},
		&Coupon{},
		&CouponVariant{},
		&CouponCategory{},
		&Cart{},
		&CartItem{},
		&Address{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&OutboxEvent{},
	}
}
