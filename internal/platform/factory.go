package platform

import (
	"context"

	"github.com/aretw0/qafizz/pkg/notebook"
)

// New opens the configured storage and returns a notebook over it.
//
//	nb, err := qafizz.New(ctx, "./data", qafizz.WithAdapter("fs"))
func New(ctx context.Context, dsn string, opts ...Option) (*notebook.Service, error) {
	o := buildOptions(opts)

	storage, err := open(ctx, dsn, o)
	if err != nil {
		return nil, err
	}

	nbOpts := []notebook.Option{notebook.WithLogger(o.logger)}
	if o.saveDelay != nil {
		nbOpts = append(nbOpts, notebook.WithSaveDelay(*o.saveDelay))
	}
	if o.ids != nil {
		nbOpts = append(nbOpts, notebook.WithIDGenerator(o.ids))
	}
	if o.now != nil {
		nbOpts = append(nbOpts, notebook.WithClock(o.now))
	}
	return notebook.New(storage, nbOpts...), nil
}
