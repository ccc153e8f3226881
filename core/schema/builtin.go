package schema

import (
	_ "embed"
	"sync"
)

//go:embed builtin.yaml
var builtinYAML []byte

var (
	builtinOnce    sync.Once
	builtinCatalog Catalog
	builtinErr     error
)

// Builtin returns the embedded catalog of fields for the essential item
// types. It panics if the embedded catalog does not check.
func Builtin() Catalog {
	builtinOnce.Do(func() {
		builtinCatalog, builtinErr = Parse(builtinYAML)
	})
	if builtinErr != nil {
		panic("schema: builtin catalog: " + builtinErr.Error())
	}
	return Merge(builtinCatalog)
}
