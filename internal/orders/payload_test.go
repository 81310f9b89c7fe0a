package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"focorders/internal"
	"focorders/internal/config"
)

func sampleGroup() internal.OrderGroup {
	return GroupLines([]internal.OrderLine{
		line(2, "A", "PO100", "10", "MaterialX", "5"),
		line(3, "A", "PO100", "20", "MaterialY", "2"),
	})[0]
}

func TestBuildHeaderAndItems(t *testing.T) {
	b := NewBuilder(config.DefaultProfile())
	req := b.Build(sampleGroup(), "/Date(1)/")

	if req.SoldToParty != "A" || req.PurchaseOrderByCustomer != "PO100" {
		t.Fatalf("key fields: %+v", req)
	}
	if req.SalesOrderWithoutChargeType != "CBFD" || req.OrganizationDivision != "00" || req.TransactionCurrency != "INR" {
		t.Fatalf("constants: %+v", req)
	}
	if req.SalesOrderWithoutChargeDate != "/Date(1)/" || req.RequestedDeliveryDate != req.SalesOrderWithoutChargeDate {
		t.Fatalf("dates: %s %s", req.SalesOrderWithoutChargeDate, req.RequestedDeliveryDate)
	}
	items := req.Items.Results
	if len(items) != 2 {
		t.Fatalf("items=%d", len(items))
	}
	first := items[0]
	if first.SalesOrderWithoutChargeItem != "10" || first.Material != "MaterialX" || first.RequestedQuantity != "5" {
		t.Fatalf("item copy: %+v", first)
	}
	if first.PurchaseOrderByCustomer != "PO100" || first.RequestedQuantityUnit != "EA" || first.NetAmount != "0" || first.SlsOrdWthoutChrgItemCategory != "CBXN" {
		t.Fatalf("item constants: %+v", first)
	}
	if first.Plant != "1000" || first.StorageLocation != "SL01" || first.ShippingPoint != "SP01" {
		t.Fatalf("item logistics: %+v", first)
	}
}

func TestBuildWireShape(t *testing.T) {
	b := NewBuilder(config.DefaultProfile())
	blob, err := json.Marshal(b.Build(sampleGroup(), "/Date(1)/"))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(blob, &doc); err != nil {
		t.Fatal(err)
	}
	toItem, ok := doc["to_Item"].(map[string]any)
	if !ok {
		t.Fatalf("to_Item missing: %s", blob)
	}
	if results, ok := toItem["results"].([]any); !ok || len(results) != 2 {
		t.Fatalf("results: %v", toItem)
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder(config.DefaultProfile())
	g := sampleGroup()
	first, _ := json.Marshal(b.Build(g, "/Date(1)/"))
	second, _ := json.Marshal(b.Build(g, "/Date(1)/"))
	if !bytes.Equal(first, second) {
		t.Fatalf("non-deterministic:\n%s\n%s", first, second)
	}

	changed := sampleGroup()
	changed.Lines[1].Qty = "7"
	a := b.Build(g, "/Date(1)/")
	c := b.Build(changed, "/Date(1)/")
	if c.Items.Results[1].RequestedQuantity != "7" {
		t.Fatalf("qty not propagated")
	}
	c.Items.Results[1].RequestedQuantity = a.Items.Results[1].RequestedQuantity
	aj, _ := json.Marshal(a)
	cj, _ := json.Marshal(c)
	if !bytes.Equal(aj, cj) {
		t.Fatalf("quantity change touched other fields")
	}
}

func TestBuildUsesProfile(t *testing.T) {
	p := config.DefaultProfile()
	p.OrganizationDivision = "50"
	req := NewBuilder(p).Build(sampleGroup(), "/Date(1)/")
	if req.OrganizationDivision != "50" {
		t.Fatalf("division=%s", req.OrganizationDivision)
	}
}

func TestERPDate(t *testing.T) {
	ist := config.DefaultProfile().Location()
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "evening utc is next day in ist",
			now:  time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC),
			want: time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC),
		},
		{
			name: "morning utc same day in ist",
			now:  time.Date(2026, 10, 15, 5, 0, 0, 0, time.UTC),
			want: time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC),
		},
		{
			name: "exact midnight",
			now:  time.Date(2026, 10, 16, 0, 0, 0, 0, ist),
			want: time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ERPDate(tc.now, ist)
			want := fmt.Sprintf("/Date(%d)/", tc.want.UnixMilli())
			if got != want {
				t.Fatalf("got %s want %s", got, want)
			}
		})
	}
}
