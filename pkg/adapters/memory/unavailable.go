package memory

import (
	"context"

	"github.com/aretw0/qafizz/pkg/core"
)

// Unavailable is storage that does not exist in the current context,
// like localStorage during server-side rendering. Every call fails with
// core.ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Get(context.Context, string) (string, bool, error) {
	return "", false, core.ErrUnavailable
}

func (Unavailable) Set(context.Context, string, string) error { return core.ErrUnavailable }

func (Unavailable) Remove(context.Context, string) error { return core.ErrUnavailable }

// ComponentType implements introspection.Component.
func (Unavailable) ComponentType() string { return "unavailable" }

var _ core.Storage = Unavailable{}
