// Package unique hands out local identifiers that do not collide within one generated scope.
package unique

import (
	"go/token"
	"strconv"

	"github.com/m4gshm/gollections/collection/mutable"
	"github.com/m4gshm/gollections/seq"
)

func NewNamesWith(opts ...func(*Names)) *Names {
	u := &Names{uniques: mutable.NewSet[string]()}
	for _, o := range opts {
		o(u)
	}
	return u
}

// PreInit reserves names used by the surrounding code.
func PreInit(names ...string) func(*Names) {
	return func(un *Names) {
		seq.ForEach(seq.Of(names...), un.Add)
	}
}

type Names struct {
	uniques *mutable.Set[string]
}

// Get returns name, or name with the first free numeric suffix when it is taken or is a keyword.
func (u *Names) Get(name string) string {
	if u.uniques == nil {
		u.uniques = mutable.NewSet[string]()
	}
	candidate := name
	for i := 1; token.IsKeyword(candidate) || !u.uniques.AddNew(candidate); i++ {
		candidate = name + strconv.Itoa(i)
	}
	return candidate
}

func (u *Names) Add(name string) {
	u.Get(name)
}
