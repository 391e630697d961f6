package services

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mishloach/pkg/composables"
)

var ErrInvalidFamily = errors.New("family id must be positive")

// DistributionService triggers the distribution procedures kept in the reporting schema.
type DistributionService struct {
	db *sql.DB
}

func NewDistributionService(db *sql.DB) *DistributionService {
	return &DistributionService{db: db}
}

// DistributeOuterOrders turns every waiting outer order into packages.
func (s *DistributionService) DistributeOuterOrders(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `SELECT distribute_all_outer_orders()`); err != nil {
		return errors.Wrap(err, "distribute outer orders")
	}
	composables.UseLogger(ctx).Info("outer orders distributed")
	return nil
}

// ApplyAutoReturn applies the automatic return-gift rule to one family.
func (s *DistributionService) ApplyAutoReturn(ctx context.Context, familyID int64) error {
	if familyID <= 0 {
		return ErrInvalidFamily
	}
	if _, err := s.db.ExecContext(ctx, `SELECT apply_autoreturn_for($1)`, familyID); err != nil {
		return errors.Wrapf(err, "apply autoreturn for %d", familyID)
	}
	composables.UseLogger(ctx).WithFields(logrus.Fields{"family_id": familyID}).Info("autoreturn applied")
	return nil
}
