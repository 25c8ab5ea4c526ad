package preset

import (
	"fmt"
	"testing"
)

func TestExpandProductSize(t *testing.T) {
	cases := []struct {
		lengths []int
		want    int
	}{
		{nil, 1},
		{[]int{1}, 1},
		{[]int{2, 2}, 4},
		{[]int{3, 1, 2}, 6},
		{[]int{2, 3, 4}, 24},
	}

	for _, tc := range cases {
		n := Normalized{}
		for i, length := range tc.lengths {
			values := make([]any, length)
			for j := range values {
				values[j] = j
			}
			n.Options = append(n.Options, NormalizedOption{Key: fmt.Sprintf("k%d", i), Values: values})
		}

		combos := Expand(n)
		if len(combos) != tc.want {
			t.Fatalf("lengths %v: expected %d combinations, got %d", tc.lengths, tc.want, len(combos))
		}

		seen := make(map[string]bool, len(combos))
		for _, c := range combos {
			if c.Len() != len(tc.lengths) {
				t.Fatalf("lengths %v: combination missing keys: %+v", tc.lengths, c.Bindings())
			}
			key := fmt.Sprintf("%v", c.Bindings())
			if seen[key] {
				t.Fatalf("lengths %v: duplicate combination %s", tc.lengths, key)
			}
			seen[key] = true
		}
	}
}

func TestExpandOdometerOrder(t *testing.T) {
	n := Normalized{Options: []NormalizedOption{
		{Key: "format", Values: []any{"webp", "jpeg"}},
		{Key: "density", Values: []any{1.0, 2.0}},
	}}

	combos := Expand(n)
	want := []struct {
		format  string
		density float64
	}{
		{"webp", 1.0},
		{"webp", 2.0},
		{"jpeg", 1.0},
		{"jpeg", 2.0},
	}

	if len(combos) != len(want) {
		t.Fatalf("expected %d combinations, got %d", len(want), len(combos))
	}
	for i, w := range want {
		format, _ := combos[i].Get("format")
		density, _ := combos[i].Get("density")
		if format != w.format || density != w.density {
			t.Fatalf("combination %d: expected (%s, %v), got (%v, %v)", i, w.format, w.density, format, density)
		}
	}
}

func TestExpandEmptyOptionSet(t *testing.T) {
	combos := Expand(Normalized{})
	if len(combos) != 1 {
		t.Fatalf("expected exactly one combination, got %d", len(combos))
	}
	if combos[0].Len() != 0 {
		t.Fatalf("expected the empty combination, got %+v", combos[0].Bindings())
	}
}
