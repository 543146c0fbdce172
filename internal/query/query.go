// Package query compiles the small set of tree-sitter queries the refactor
// engine runs against Elm syntax trees: imports, qualified references,
// unqualified references, and a module's own exports.
//
// Each query's pattern source lives in its own .scm file under queries/,
// embedded at build time, keeping tree-sitter query text out of Go string
// literals.
package query

import (
	"embed"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/elm"
)

//go:embed queries/*.scm
var queryFS embed.FS

func compile(file string) (*sitter.Query, error) {
	src, err := queryFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("query: reading %s: %w", file, err)
	}
	q, err := sitter.NewQuery(src, elm.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("query: compiling %s: %w", file, err)
	}
	return q, nil
}

func captureIndex(q *sitter.Query, name string) (uint32, error) {
	for i := uint32(0); i < q.CaptureCount(); i++ {
		if q.CaptureNameForId(i) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("query: no capture named %q", name)
}
