package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/internal/cart"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox/payloads"
)

// orderItemsFromQuote charges each line at its live discounted unit price.
func orderItemsFromQuote(orderID uuid.UUID, quote cart.Quote) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			VariantID: line.Item.VariantID,
			Price:     line.DiscountedUnitPrice,
			Quantity:  line.Item.Quantity,
		})
	}
	return items
}

func itemPayloads(items []models.OrderItem) []payloads.OrderItemPayload {
	out := make([]payloads.OrderItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, payloads.OrderItemPayload{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return out
}

// unavailableLine returns the first line whose product was withdrawn from sale.
func unavailableLine(quote cart.Quote) (cart.Line, bool) {
	for _, line := range quote.Lines {
		variant := line.Item.Variant
		if variant == nil || variant.Product == nil || !variant.Product.Available {
			return line, true
		}
	}
	return cart.Line{}, false
}
