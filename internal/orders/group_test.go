package orders

import (
	"fmt"
	"testing"

	"focorders/internal"
)

func line(row int, soldTo, po, item, material, qty string) internal.OrderLine {
	return internal.OrderLine{
		RowNumber: row, SoldToParty: soldTo, PONumber: po, Item: item, Material: material, Qty: qty,
		Plant: "1000", StorageLocation: "SL01", ShippingPoint: "SP01",
	}
}

func TestGroupLinesExample(t *testing.T) {
	lines := []internal.OrderLine{
		line(2, "A", "PO100", "1", "MaterialX", "5"),
		line(3, "A", "PO100", "2", "MaterialY", "2"),
		line(4, "B", "PO200", "1", "MaterialZ", "1"),
	}
	groups := GroupLines(lines)
	if len(groups) != 2 {
		t.Fatalf("groups=%d", len(groups))
	}
	if groups[0].Key != (internal.GroupKey{SoldToParty: "A", PONumber: "PO100"}) || len(groups[0].Lines) != 2 {
		t.Fatalf("group0=%+v", groups[0])
	}
	if groups[1].Key != (internal.GroupKey{SoldToParty: "B", PONumber: "PO200"}) || len(groups[1].Lines) != 1 {
		t.Fatalf("group1=%+v", groups[1])
	}
}

func TestGroupLinesFirstSeenOrder(t *testing.T) {
	lines := []internal.OrderLine{
		line(2, "C", "PO3", "1", "M1", "1"),
		line(3, "A", "PO1", "1", "M2", "1"),
		line(4, "C", "PO3", "2", "M3", "1"),
		line(5, "A", "PO2", "1", "M4", "1"),
		line(6, "A", "PO1", "2", "M5", "1"),
	}
	groups := GroupLines(lines)
	want := []struct {
		key  internal.GroupKey
		rows []int
	}{
		{internal.GroupKey{SoldToParty: "C", PONumber: "PO3"}, []int{2, 4}},
		{internal.GroupKey{SoldToParty: "A", PONumber: "PO1"}, []int{3, 6}},
		{internal.GroupKey{SoldToParty: "A", PONumber: "PO2"}, []int{5}},
	}
	if len(groups) != len(want) {
		t.Fatalf("groups=%d", len(groups))
	}
	for i, w := range want {
		if groups[i].Key != w.key {
			t.Fatalf("group %d key=%+v want %+v", i, groups[i].Key, w.key)
		}
		for j, row := range w.rows {
			if groups[i].Lines[j].RowNumber != row {
				t.Fatalf("group %d line %d row=%d want %d", i, j, groups[i].Lines[j].RowNumber, row)
			}
		}
	}
}

func TestGroupLinesCompleteAndPure(t *testing.T) {
	var lines []internal.OrderLine
	for i := 0; i < 60; i++ {
		lines = append(lines, line(i+2, fmt.Sprintf("C%d", i%4), fmt.Sprintf("PO%d", i%7), fmt.Sprint(i), "M", "1"))
	}
	groups := GroupLines(lines)

	seen := map[int]int{}
	for _, g := range groups {
		for _, l := range g.Lines {
			if l.Key() != g.Key {
				t.Fatalf("row %d key %+v in group %+v", l.RowNumber, l.Key(), g.Key)
			}
			seen[l.RowNumber]++
		}
	}
	if len(seen) != len(lines) {
		t.Fatalf("covered %d of %d rows", len(seen), len(lines))
	}
	for row, n := range seen {
		if n != 1 {
			t.Fatalf("row %d appears %d times", row, n)
		}
	}
}

func TestGroupLinesEmpty(t *testing.T) {
	if groups := GroupLines(nil); len(groups) != 0 {
		t.Fatalf("groups=%d", len(groups))
	}
}

func TestPreview(t *testing.T) {
	rows := Preview(GroupLines([]internal.OrderLine{
		line(2, "A", "PO100", "1", "X", "5"),
		line(3, "A", "PO100", "2", "Y", "2"),
	}))
	if len(rows) != 1 || rows[0].ItemCount != 2 || rows[0].PONumber != "PO100" {
		t.Fatalf("rows=%+v", rows)
	}
}
