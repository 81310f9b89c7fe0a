package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadProfileDefaults(t *testing.T) {
	p, err := LoadProfile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.OrganizationDivision != "00" || p.Currency != "INR" || p.ItemCategory != "CBXN" {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, p.Location()).Zone()
	if offset != 5*3600+30*60 {
		t.Fatalf("offset=%d", offset)
	}
}

func TestLoadProfileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	blob := []byte("organization_division: \"50\"\nutc_offset_minutes: -300\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.OrganizationDivision != "50" {
		t.Fatalf("division=%s", p.OrganizationDivision)
	}
	if p.SalesOrganization != "2000" {
		t.Fatalf("default lost: %s", p.SalesOrganization)
	}
	if p.Location().String() != "UTC-05:00" {
		t.Fatalf("location=%s", p.Location())
	}
}

func TestLoadProfileRejectsEmptyConstant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("currency: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected error")
	}
}
