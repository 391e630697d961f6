package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/pkg/composables"
)

// StreetIndex maps trimmed street names to their codes.
type StreetIndex map[string]int64

// Lookup returns the code for name, or nil when name is empty or unknown.
func (idx StreetIndex) Lookup(name string) *int64 {
	name = street.NormalizeName(name)
	if name == "" {
		return nil
	}
	code, ok := idx[name]
	if !ok {
		return nil
	}
	return &code
}

type StreetResolver struct {
	streets street.Repository
	tx      Transactor
}

func NewStreetResolver(streets street.Repository, tx Transactor) *StreetResolver {
	return &StreetResolver{streets: streets, tx: tx}
}

// Resolve finds or creates a street for every distinct trimmed non-empty name.
// Existing streets are never renamed.
func (r *StreetResolver) Resolve(ctx context.Context, names []string) (StreetIndex, error) {
	idx := make(StreetIndex)
	logger := composables.UseLogger(ctx)
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		for _, raw := range names {
			name := street.NormalizeName(raw)
			if name == "" {
				continue
			}
			if _, seen := idx[name]; seen {
				continue
			}
			s, err := r.streets.FindByName(ctx, name)
			if errors.Is(err, street.ErrNotFound) {
				s, err = r.streets.Create(ctx, name)
				if err == nil {
					streetsCreated.Inc()
					logger.WithFields(logrus.Fields{"streetname": name, "streetcode": s.Code}).Info("street created")
				}
			}
			if err != nil {
				return errors.Wrapf(err, "resolve street %q", name)
			}
			idx[name] = s.Code
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}
