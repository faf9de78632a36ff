package domain

import (
	"errors"
	"reflect"
	"testing"
)

func sampleCatalogue() Catalogue {
	return Catalogue{
		{Code: "NPC100", Description: "Gauze swabs"},
		{Code: "NPC200", Description: "Nitrile gloves (medium)"},
		{Code: "NPC300", Description: "Saline 10ml"},
	}
}

func TestCatalogueUpsertAppendsNewCode(t *testing.T) {
	c := sampleCatalogue()
	got := c.Upsert(Product{Code: "npc400", Description: "Tape"})
	if len(got) != len(c)+1 {
		t.Fatalf("expected %d entries, got %d", len(c)+1, len(got))
	}
	last := got[len(got)-1]
	if last.Code != "NPC400" || last.Description != "Tape" {
		t.Fatalf("unexpected appended product %+v", last)
	}
	if len(c) != 3 {
		t.Fatalf("receiver mutated: %+v", c)
	}
}

func TestCatalogueUpsertReplacesInPlace(t *testing.T) {
	c := sampleCatalogue()
	got := c.Upsert(Product{Code: "npc200", Description: "Nitrile gloves (large)"})
	if len(got) != len(c) {
		t.Fatalf("expected %d entries, got %d", len(c), len(got))
	}
	want := Catalogue{
		{Code: "NPC100", Description: "Gauze swabs"},
		{Code: "NPC200", Description: "Nitrile gloves (large)"},
		{Code: "NPC300", Description: "Saline 10ml"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("upsert mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if c[1].Description != "Nitrile gloves (medium)" {
		t.Fatalf("receiver mutated: %+v", c[1])
	}
}

func TestCatalogueDelete(t *testing.T) {
	c := sampleCatalogue()
	got := c.Delete("npc200")
	if len(got) != 2 || got.Contains("NPC200") {
		t.Fatalf("expected NPC200 removed, got %+v", got)
	}
	if same := c.Delete("MISSING"); !reflect.DeepEqual(same, c) {
		t.Fatalf("expected no-op delete, got %+v", same)
	}
}

func TestCatalogueRenameKeyPreservesPosition(t *testing.T) {
	c := sampleCatalogue()
	got, err := c.RenameKey("NPC100", Product{Code: "npc101", Description: "Gauze swabs 10x10"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got[0].Code != "NPC101" || got[0].Description != "Gauze swabs 10x10" {
		t.Fatalf("expected renamed entry first, got %+v", got[0])
	}
	if got.Contains("NPC100") {
		t.Fatalf("old code still present: %+v", got)
	}
}

func TestCatalogueRenameKeySameCodeUpdatesDescription(t *testing.T) {
	got, err := sampleCatalogue().RenameKey("npc300", Product{Code: "NPC300", Description: "Saline 20ml"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got[2].Description != "Saline 20ml" {
		t.Fatalf("expected description update, got %+v", got[2])
	}
}

func TestCatalogueRenameKeyCollision(t *testing.T) {
	c := sampleCatalogue()
	got, err := c.RenameKey("NPC100", Product{Code: "npc300", Description: "dup"})
	var dup DuplicateCodeError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateCodeError, got %v", err)
	}
	if dup.Code != "NPC300" {
		t.Fatalf("unexpected duplicate code %q", dup.Code)
	}
	if !reflect.DeepEqual(got, sampleCatalogue()) {
		t.Fatalf("catalogue changed on collision: %+v", got)
	}
}

func TestCatalogueRenameKeyMissing(t *testing.T) {
	_, err := sampleCatalogue().RenameKey("NOPE", Product{Code: "X", Description: "x"})
	var nf ProductNotFoundError
	if !errors.As(err, &nf) || nf.Code != "NOPE" {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
}

func TestCatalogueSearch(t *testing.T) {
	c := sampleCatalogue()
	cases := []struct {
		query string
		want  []string
	}{
		{"gloves", []string{"NPC200"}},
		{"npc", []string{"NPC100", "NPC200", "NPC300"}},
		{"  SALINE ", []string{"NPC300"}},
		{"", nil},
		{"zzz", nil},
	}
	for _, tc := range cases {
		var got []string
		for _, p := range c.Search(tc.query, 10) {
			got = append(got, p.Code)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("search %q: want %v got %v", tc.query, tc.want, got)
		}
	}
	if got := c.Search("npc", 2); len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}

func TestBulkImportPairs(t *testing.T) {
	got, err := BulkImport([]string{"Desc A", "CODE1", "Desc B", "CODE2"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := Catalogue{
		{Code: "CODE1", Description: "Desc A"},
		{Code: "CODE2", Description: "Desc B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %+v got %+v", want, got)
	}
}

func TestBulkImportSkipsBlanksAndTrailingLine(t *testing.T) {
	got, err := BulkImport([]string{"", "  Desc A ", "", " code1 ", "   ", "Orphan"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := Catalogue{{Code: "CODE1", Description: "Desc A"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %+v got %+v", want, got)
	}
}

func TestBulkImportNoValidItems(t *testing.T) {
	for _, lines := range [][]string{nil, {}, {"", "  ", "\t"}, {"only one line"}} {
		if _, err := BulkImport(lines); !errors.As(err, &NoValidItemsError{}) {
			t.Fatalf("lines %q: expected NoValidItemsError, got %v", lines, err)
		}
	}
}

func TestParseImportHandlesCRLF(t *testing.T) {
	got, err := ParseImport("Gauze swabs\r\nnpc100\r\n\r\nSaline\nnpc300\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0].Code != "NPC100" || got[1].Description != "Saline" {
		t.Fatalf("unexpected catalogue %+v", got)
	}
}

func TestNormalizeProduct(t *testing.T) {
	got := NormalizeProduct(Product{Code: " ab1 ", Description: " Widget ", Category: " misc "})
	if got != (Product{Code: "AB1", Description: "Widget", Category: "misc"}) {
		t.Fatalf("unexpected normalized product %+v", got)
	}
}
