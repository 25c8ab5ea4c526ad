package codegen

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSerializePrimitives(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{2.0, "2"},
		{"plain", `"plain"`},
		{Expr("__public_path__ + \"a\""), `__public_path__ + "a"`},
	}

	for _, tc := range cases {
		if got := Serialize(tc.in); got != tc.want {
			t.Fatalf("Serialize(%v): expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestSerializeEscapesEveryOccurrence(t *testing.T) {
	hostile := "a\"b\"c<d>e/f/\ng\rh\ti\u2028j\u2029k\\l"

	got := Serialize(hostile)

	for _, forbidden := range []string{"<", ">", "\n", "\r", "\t", "\u2028", "\u2029"} {
		if strings.Contains(got, forbidden) {
			t.Fatalf("serialized text contains unescaped %q: %s", forbidden, got)
		}
	}
	for _, want := range []string{`\u003C`, `\u003E`, `\u2028`, `\u2029`} {
		if !strings.Contains(got, want) {
			t.Fatalf("serialized text missing escape %s: %s", want, got)
		}
	}
	// Every interior quote must carry a backslash; only the two
	// delimiters are bare.
	interior := got[1 : len(got)-1]
	for i := 0; i < len(interior); i++ {
		if interior[i] == '"' && (i == 0 || interior[i-1] != '\\') {
			t.Fatalf("unescaped quote at %d in %s", i, got)
		}
	}
	if strings.Count(got, `\/`) != 2 {
		t.Fatalf("expected both slashes escaped, got %s", got)
	}
	if strings.Count(got, `\"`) != 2 {
		t.Fatalf("expected both quotes escaped, got %s", got)
	}

	// The rendered literal must parse back to the original string.
	var back string
	if err := json.Unmarshal([]byte(got), &back); err != nil {
		t.Fatalf("rendered literal is not parseable: %v (%s)", err, got)
	}
	if back != hostile {
		t.Fatalf("round trip mismatch: got %q want %q", back, hostile)
	}
}

func TestSerializeObjectPreservesKeyOrder(t *testing.T) {
	obj := Object{}.
		Set("zeta", 1).
		Set("alpha", 2).
		Set("mid", "x").
		Set("zeta", 3)

	got := Serialize(obj)
	want := `{"zeta": 3,"alpha": 2,"mid": "x"}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestSerializeNestedArrays(t *testing.T) {
	v := []any{nil, []any{1, "two"}, Object{{Key: "k", Value: Expr("base + \"f\"")}}}
	got := Serialize(v)
	want := `[null,[1,"two"],{"k": base + "f"}]`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestModuleTextIdempotent(t *testing.T) {
	records := []Object{
		Object{}.Set("name", "a.webp").Set("url", PathExpr("__webpack_public_path__", "a.webp")),
		Object{}.Set("name", "b.jpeg").Set("inline", true),
	}

	first := ModuleText("", records)
	second := ModuleText("", records)
	if first != second {
		t.Fatal("expected byte-identical output for repeated serialization")
	}

	if !strings.HasPrefix(first, "module.exports = [") {
		t.Fatalf("expected default export assignment, got %s", first)
	}
	if !strings.HasSuffix(first, ";\n") {
		t.Fatalf("expected terminated assignment, got %q", first)
	}
	if !strings.Contains(first, `__webpack_public_path__ + "a.webp"`) {
		t.Fatalf("expected unquoted path expression, got %s", first)
	}

	custom := ModuleText("exports.assets", records)
	if !strings.HasPrefix(custom, "exports.assets = [") {
		t.Fatalf("expected custom export slot, got %s", custom)
	}
}
