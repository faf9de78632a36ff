package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestCartScanAddModeDefaultsToOne(t *testing.T) {
	cart := NewCart()
	pending, err := cart.Scan(" npc100 ", sampleCatalogue())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := PendingItem{Code: "NPC100", Description: "Gauze swabs", Quantity: 1}
	if pending != want {
		t.Fatalf("want %+v got %+v", want, pending)
	}
}

func TestCartScanUnknownCode(t *testing.T) {
	pending, err := NewCart().Scan("zz9", sampleCatalogue())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if pending.Code != "ZZ9" || pending.Description != UnknownItemDescription {
		t.Fatalf("unexpected pending %+v", pending)
	}
}

func TestCartScanEmptyCode(t *testing.T) {
	if _, err := NewCart().Scan("   ", nil); !errors.Is(err, ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}

func TestCartScanExistingEntersEditMode(t *testing.T) {
	cart := NewCart(CartItem{Code: "NPC100", Description: "Gauze swabs", Quantity: 4})
	pending, err := cart.Scan("npc100", sampleCatalogue())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !pending.EditMode || pending.Quantity != 4 {
		t.Fatalf("expected edit mode with current quantity, got %+v", pending)
	}
}

func TestCartRepeatedScanAccumulates(t *testing.T) {
	cart := NewCart()
	if err := cart.Confirm("X1", "Thing", 3, false); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := cart.Confirm("X1", "Thing", 2, false); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	want := []CartItem{{Code: "X1", Description: "Thing", Quantity: 5}}
	if !reflect.DeepEqual(cart.Items(), want) {
		t.Fatalf("want %+v got %+v", want, cart.Items())
	}
}

func TestCartEditModeOverwrites(t *testing.T) {
	cart := NewCart(CartItem{Code: "X1", Description: "Thing", Quantity: 5})
	if err := cart.Confirm("X1", "Thing", 7, true); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if item, _ := cart.Find("X1"); item.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", item.Quantity)
	}
}

func TestCartNewItemsArePrependedAndEditsKeepPosition(t *testing.T) {
	cart := NewCart()
	for _, code := range []string{"A", "B", "C"} {
		if err := cart.Confirm(code, code, 1, false); err != nil {
			t.Fatalf("confirm %s: %v", code, err)
		}
	}
	if err := cart.Confirm("B", "B", 9, true); err != nil {
		t.Fatalf("edit: %v", err)
	}
	var order []string
	for _, item := range cart.Items() {
		order = append(order, item.Code)
	}
	if !reflect.DeepEqual(order, []string{"C", "B", "A"}) {
		t.Fatalf("unexpected order %v", order)
	}
	if item, _ := cart.Find("B"); item.Quantity != 9 {
		t.Fatalf("expected B=9, got %d", item.Quantity)
	}
}

func TestCartEditModeOnAbsentInserts(t *testing.T) {
	cart := NewCart()
	if err := cart.Confirm("Q", "Q", 2, true); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if item, ok := cart.Find("Q"); !ok || item.Quantity != 2 {
		t.Fatalf("expected inserted Q=2, got %+v %v", item, ok)
	}
}

func TestCartRejectsInvalidQuantity(t *testing.T) {
	cart := NewCart(CartItem{Code: "X1", Quantity: 1})
	for _, qty := range []int{0, -1} {
		err := cart.Confirm("X1", "", qty, false)
		if !errors.As(err, &InvalidQuantityError{}) {
			t.Fatalf("qty %d: expected InvalidQuantityError, got %v", qty, err)
		}
	}
	for _, input := range []string{"0", "-1", "abc", "", "2.5"} {
		if _, err := ParseQuantity(input); !errors.As(err, &InvalidQuantityError{}) {
			t.Fatalf("input %q: expected InvalidQuantityError, got %v", input, err)
		}
	}
	if item, _ := cart.Find("X1"); item.Quantity != 1 {
		t.Fatalf("cart changed: %+v", item)
	}
}

func TestParseQuantity(t *testing.T) {
	got, err := ParseQuantity(" 12 ")
	if err != nil || got != 12 {
		t.Fatalf("expected 12, got %d (%v)", got, err)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	cart := NewCart(CartItem{Code: "A", Quantity: 1}, CartItem{Code: "B", Quantity: 2})
	cart.Remove("MISSING")
	if cart.Len() != 2 {
		t.Fatalf("expected no-op remove")
	}
	cart.Remove("A")
	if _, ok := cart.Find("A"); ok || cart.Len() != 1 {
		t.Fatalf("expected A removed, got %+v", cart.Items())
	}
	cart.Clear()
	if cart.Len() != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestCartEdit(t *testing.T) {
	cart := NewCart(CartItem{Code: "A", Description: "Alpha", Quantity: 6})
	pending, ok := cart.Edit("A")
	if !ok || !pending.EditMode || pending.Quantity != 6 || pending.Description != "Alpha" {
		t.Fatalf("unexpected pending %+v %v", pending, ok)
	}
	if _, ok := cart.Edit("B"); ok {
		t.Fatalf("expected no pending for absent code")
	}
}

func TestCartItemsIsACopy(t *testing.T) {
	cart := NewCart(CartItem{Code: "A", Quantity: 1})
	items := cart.Items()
	items[0].Quantity = 99
	if item, _ := cart.Find("A"); item.Quantity != 1 {
		t.Fatalf("cart leaked internal slice")
	}
}
