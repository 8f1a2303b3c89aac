package svg

import (
	"strings"
	"testing"
)

func TestHBarsPreservesOrder(t *testing.T) {
	rows := []HBar{
		{Label: "Cebu City", Value: 9e8, Caption: "₱900.0M"},
		{Label: "Davao City", Value: 7e8},
		{Label: "Quezon City", Value: 8e8},
	}
	html, err := HBars(600, rows, HBarOpts{Title: "Top LGUs"})
	if err != nil {
		t.Fatalf("hbars renderer error: %v", err)
	}
	output := string(html)
	first := strings.Index(output, "Cebu City")
	second := strings.Index(output, "Davao City")
	third := strings.Index(output, "Quezon City")
	if first < 0 || second < 0 || third < 0 || !(first < second && second < third) {
		t.Fatalf("expected rows in input order, got %s", output)
	}
	if strings.Count(output, "<rect") != len(rows) {
		t.Fatalf("expected one bar per row")
	}
	if !strings.Contains(output, "₱900.0M") || !strings.Contains(output, "700.0M") {
		t.Fatalf("expected captions")
	}
	if !strings.Contains(output, `viewBox="0 0 600 110"`) {
		t.Fatalf("expected height to follow row count, got %s", output)
	}
}

func TestHBarsRequiresRows(t *testing.T) {
	if _, err := HBars(0, nil, HBarOpts{}); err == nil {
		t.Fatalf("expected error for empty rows")
	}
}
