package modules

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/mishloach/pkg/application"
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return errors.Wrapf(err, "register module %s", module.Name())
		}
	}
	return nil
}

// Bootstrap runs the seeding step of every module that has one.
func Bootstrap(ctx context.Context, app application.Application, loaded ...application.Module) error {
	for _, module := range loaded {
		b, ok := module.(application.Bootstrapper)
		if !ok {
			continue
		}
		if err := b.Bootstrap(ctx, app); err != nil {
			return errors.Wrapf(err, "bootstrap module %s", module.Name())
		}
	}
	return nil
}
