package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is how the customer settles an order. Only the online
// gateway is driven by checkout today; the others are accepted on orders
// created by back-office tooling.
type PaymentMethod string

const (
	PaymentMethodCardToCard     PaymentMethod = "card_to_card"
	PaymentMethodOnlineGateway  PaymentMethod = "online_gateway"
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCardToCard, PaymentMethodOnlineGateway, PaymentMethodWallet, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// UsesGateway reports whether settlement goes through the redirect gateway.
func (m PaymentMethod) UsesGateway() bool {
	return m == PaymentMethodOnlineGateway
}

// ParsePaymentMethod accepts "online-gateway" and "ONLINE_GATEWAY" alike.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	if method := PaymentMethod(normalized); method.IsValid() {
		return method, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
