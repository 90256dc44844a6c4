package types

import "testing"

func TestWithoutLeavesOriginalIntact(t *testing.T) {
	req := NewFilterRequest()
	req.Selections["color"] = ListSelection{Values: []string{"red"}}
	req.Selections["size"] = ListSelection{Values: []string{"s"}}

	stripped := req.Without("color")
	if _, found := stripped.Selections["color"]; found {
		t.Error("Expected color to be removed")
	}
	if _, found := stripped.Selections["size"]; !found {
		t.Error("Expected size to survive")
	}
	if _, found := req.Selections["color"]; !found {
		t.Error("Expected original request untouched")
	}
}

func TestWithValueReplacesSelection(t *testing.T) {
	req := NewFilterRequest()
	req.Selections["color"] = ListSelection{Values: []string{"red", "blue"}}

	probed := req.WithValue("color", "green")
	sel, ok := probed.Selections["color"].(ListSelection)
	if !ok || len(sel.Values) != 1 || sel.Values[0] != "green" {
		t.Errorf("Expected single probe value, got %v", probed.Selections["color"])
	}
}

func TestSanitizeClampsPage(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{-5, 1}, {0, 1}, {3, 3}, {99999, 10000},
	} {
		req := NewFilterRequest()
		req.Page = tc.in
		req.Sanitize()
		if req.Page != tc.want {
			t.Errorf("Expected page %d for input %d, got %d", tc.want, tc.in, req.Page)
		}
	}
}

func TestSelectionEmpty(t *testing.T) {
	if !(ListSelection{}).Empty() {
		t.Error("Expected empty list selection")
	}
	if (ListSelection{Values: []string{"a"}}).Empty() {
		t.Error("Expected non-empty list selection")
	}
	if !(RangeSelection{}).Empty() {
		t.Error("Expected empty range selection")
	}
	min := 1.0
	if (RangeSelection{Min: &min}).Empty() {
		t.Error("Expected bounded range to be non-empty")
	}
}
