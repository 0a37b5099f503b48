// Package selftest ships the built-in self-test suite. The suite is a set of
// ordinary units embedded in the binary and resolved through the same engine
// as user units, starting from the reserved unit name RootName.
package selftest

import (
	"embed"
	"io/fs"

	"github.com/specialistvlad/ensure/internal/loader"
)

// RootName is the reserved unit name that starts the self-test suite.
const RootName = "selftest"

//go:embed units
var units embed.FS

// Root returns the search root holding the embedded self-test units.
func Root() loader.Root {
	sub, err := fs.Sub(units, "units")
	if err != nil {
		// The embedded tree is fixed at build time.
		panic(err)
	}
	return loader.Root{Name: "builtin", FS: sub}
}
