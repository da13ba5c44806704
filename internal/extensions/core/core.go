// Package core assembles the built-in libfunc hierarchy and type catalog.
//
// Adding a family means declaring its tag here and appending one member to
// LibFuncs.
package core

import (
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/extensions/core/felt"
	"github.com/roach88/sierra/internal/extensions/core/mem"
)

// Member tags of the core hierarchy.
const (
	TagMem  extensions.Tag = "Mem"
	TagFelt extensions.Tag = "Felt"
)

// LibFuncs is the closed set of libfunc families known to the engine.
var LibFuncs = extensions.MustHierarchy("core",
	extensions.Member{Tag: TagMem, Family: mem.Family},
	extensions.Member{Tag: TagFelt, Family: felt.Family},
)

// Types is the catalog of generic types known to the engine.
var Types = extensions.TypeCatalog{
	felt.TypeID:        extensions.NoArgsType{Size: 1},
	felt.NonZeroTypeID: extensions.WrapperType{},
}
