package refactor

import "github.com/viant/elm-pair/internal/query"

// Name is a (text, kind) pair, equality of which is structural: case of
// text is significant, and a Value named "foo" never matches a Type named
// "foo".
type Name struct {
	Text string
	Kind query.NameKind
}
