package enums

import "testing"

func TestOrderStatusRefundable(t *testing.T) {
	cases := map[OrderStatus]bool{
		OrderStatusPending:   false,
		OrderStatusPaid:      true,
		OrderStatusShipped:   true,
		OrderStatusDelivered: true,
		OrderStatusCancelled: false,
		OrderStatusFailed:    false,
	}
	for status, want := range cases {
		if got := status.IsRefundable(); got != want {
			t.Fatalf("%s: expected refundable=%v got %v", status, want, got)
		}
	}
}

func TestOrderStatusNext(t *testing.T) {
	if next, ok := OrderStatusPaid.Next(); !ok || next != OrderStatusShipped {
		t.Fatalf("expected paid -> shipped, got %s %v", next, ok)
	}
	if next, ok := OrderStatusShipped.Next(); !ok || next != OrderStatusDelivered {
		t.Fatalf("expected shipped -> delivered, got %s %v", next, ok)
	}
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed} {
		if _, ok := status.Next(); ok {
			t.Fatalf("%s should have no forward step", status)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
	got, err := ParseOrderStatus("shipped")
	if err != nil || got != OrderStatusShipped {
		t.Fatalf("unexpected parse result %s %v", got, err)
	}
	if !OrderStatusFailed.IsTerminal() || OrderStatusPaid.IsTerminal() {
		t.Fatalf("terminal classification wrong")
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	if !PaymentStatusPending.CanTransitionTo(PaymentStatusSuccessful) || !PaymentStatusPending.CanTransitionTo(PaymentStatusFailed) {
		t.Fatalf("pending must settle to successful or failed")
	}
	for _, from := range []PaymentStatus{PaymentStatusSuccessful, PaymentStatusFailed} {
		for _, to := range []PaymentStatus{PaymentStatusPending, PaymentStatusSuccessful, PaymentStatusFailed} {
			if from.CanTransitionTo(to) {
				t.Fatalf("%s is final, got transition to %s", from, to)
			}
		}
	}
}

func TestParsePaymentMethodNormalizes(t *testing.T) {
	got, err := ParsePaymentMethod(" Online-Gateway ")
	if err != nil || got != PaymentMethodOnlineGateway || !got.UsesGateway() {
		t.Fatalf("expected online gateway, got %q err=%v", got, err)
	}
	if _, err := ParsePaymentMethod("barter"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}
