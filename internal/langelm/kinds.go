// Package langelm holds tree-sitter-elm grammar constants shared by the
// query, diff, and refactor layers. The tree-sitter bindings expose node
// kinds as strings (Node.Type()), so everything keys off the kind name.
package langelm

// Node kinds used throughout the differ, query layer, and refactor engine.
const (
	KindAsClause                 = "as_clause"
	KindBlockComment             = "block_comment"
	KindComma                    = ","
	KindConstructorIdentifier    = "constructor_identifier"
	KindConstructorQid           = "constructor_qid"
	KindDot                      = "dot"
	KindDoubleDot                = "double_dot"
	KindExposedOperator          = "exposed_operator"
	KindExposedType              = "exposed_type"
	KindExposedUnionConstructors = "exposed_union_constructors"
	KindExposedValue             = "exposed_value"
	KindExposingList             = "exposing_list"
	KindImportClause             = "import_clause"
	KindLowerCaseIdentifier      = "lower_case_identifier"
	KindModuleDeclaration        = "module_declaration"
	KindModuleNameSegment        = "module_name_segment"
	KindRecordType               = "record_type"
	KindTypeIdentifier           = "type_identifier"
	KindTypeQid                  = "type_qid"
	KindUpperCaseQid             = "upper_case_qid"
	KindValueQid                 = "value_qid"
)

// ImplicitElmImports lists modules exposed by default without needing an
// explicit import, matching the compiler's implicit-import list.
var ImplicitElmImports = []string{
	"Basics", "Char", "Cmd", "List", "Maybe", "Platform", "Result", "String",
	"Sub", "Tuple",
}

// IsImplicitImport reports whether moduleName never requires an explicit
// import statement.
func IsImplicitImport(moduleName string) bool {
	for _, name := range ImplicitElmImports {
		if name == moduleName {
			return true
		}
	}
	return false
}
