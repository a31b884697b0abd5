package enums

import (
	"fmt"
	"strings"
)

// CartStatus is the lifecycle of a user's single cart row. A converted or
// abandoned cart is reopened rather than replaced when the user shops again.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusConverted CartStatus = "converted"
)

func (c CartStatus) String() string {
	return string(c)
}

func (c CartStatus) IsValid() bool {
	switch c {
	case CartStatusActive, CartStatusAbandoned, CartStatusConverted:
		return true
	}
	return false
}

// NeedsReopen reports whether the cart must be set back to active before
// items or coupons can change.
func (c CartStatus) NeedsReopen() bool {
	return c != CartStatusActive
}

// ParseCartStatus accepts any casing and surrounding whitespace.
func ParseCartStatus(value string) (CartStatus, error) {
	status := CartStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid cart status %q", value)
	}
	return status, nil
}
