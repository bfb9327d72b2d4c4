package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("shipped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", got)
	}
	if _, err := ParseOrderStatus("Shipped"); err == nil {
		t.Fatal("expected case-sensitive parse to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range validOrderStatuses {
		want := status == OrderStatusCancelled || status == OrderStatusReturned
		if status.IsTerminal() != want {
			t.Fatalf("status %s terminal=%v, want %v", status, status.IsTerminal(), want)
		}
	}
}

func TestParseUserTypeAndPaymentMethod(t *testing.T) {
	if _, err := ParseUserType("admin"); err == nil {
		t.Fatal("expected admin to be rejected")
	}
	if ut, err := ParseUserType("wholesaler"); err != nil || ut != UserTypeWholesaler {
		t.Fatalf("unexpected parse result %q %v", ut, err)
	}
	if !PaymentMethodBankTransfer.IsValid() {
		t.Fatal("bank transfer should be valid")
	}
	if PaymentMethod("bitcoin").IsValid() {
		t.Fatal("bitcoin should be invalid")
	}
}

func TestOutboxEnums(t *testing.T) {
	if _, err := ParseOutboxEventType("order_placed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if OutboxAggregateType("vendor_order").IsValid() {
		t.Fatal("unexpected aggregate type accepted")
	}
}
