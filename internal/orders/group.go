package orders

import "focorders/internal"

// GroupLines partitions lines by (SoldToParty, PO_Number). Groups come out in the
// order their key was first seen and keep the input order of their lines.
func GroupLines(lines []internal.OrderLine) []internal.OrderGroup {
	positions := map[internal.GroupKey]int{}
	groups := make([]internal.OrderGroup, 0)
	for _, line := range lines {
		key := line.Key()
		pos, ok := positions[key]
		if !ok {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, internal.OrderGroup{Key: key})
		}
		groups[pos].Lines = append(groups[pos].Lines, line)
	}
	return groups
}

// PreviewRow is one line of the grouped preview shown before submission.
type PreviewRow struct {
	SoldToParty string
	PONumber    string
	ItemCount   int
}

func Preview(groups []internal.OrderGroup) []PreviewRow {
	out := make([]PreviewRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, PreviewRow{SoldToParty: g.Key.SoldToParty, PONumber: g.Key.PONumber, ItemCount: len(g.Lines)})
	}
	return out
}
