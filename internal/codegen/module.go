package codegen

import "strings"

// DefaultExportExpr is the export slot the generated module assigns to
// when the project config does not override it.
const DefaultExportExpr = "module.exports"

// PathExpr builds the code expression for a non-inline asset URL: the
// runtime-provided base-path variable concatenated with the safely
// quoted output name.
func PathExpr(publicPathVar, name string) Expr {
	return Expr(publicPathVar + " + " + Quote(name))
}

// ModuleText renders the complete generated module: a single
// assignment of the serialized record array to the export slot.
// Serializing the same records twice yields byte-identical text.
func ModuleText(exportExpr string, records []Object) string {
	expr := strings.TrimSpace(exportExpr)
	if expr == "" {
		expr = DefaultExportExpr
	}
	return expr + " = " + Serialize(records) + ";\n"
}
