package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
)

type PersonService struct {
	repo      person.Repository
	sequencer *Sequencer
	tx        Transactor
}

func NewPersonService(repo person.Repository, sequencer *Sequencer, tx Transactor) *PersonService {
	return &PersonService{repo: repo, sequencer: sequencer, tx: tx}
}

func (s *PersonService) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *PersonService) GetByID(ctx context.Context, id int64) (person.Person, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PersonService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Create inserts one person. An explicit id must be free and is then reserved;
// otherwise the next id is drawn from the sequencer.
func (s *PersonService) Create(ctx context.Context, dto *person.CreateDTO) (person.Person, error) {
	if dto == nil {
		return person.Person{}, errors.New("missing dto")
	}
	dto.Normalize()

	var created person.Person
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if dto.PersonID != nil {
			if err := s.sequencer.Lock(ctx); err != nil {
				return err
			}
			p, err := s.repo.Create(ctx, person.New(*dto.PersonID, dto.Fields()))
			if err != nil {
				return err
			}
			created = p
			return s.sequencer.ReserveManual(ctx, p.ID())
		}
		id, err := s.sequencer.ReserveNext(ctx)
		if err != nil {
			return err
		}
		created, err = s.repo.Create(ctx, person.New(id, dto.Fields()))
		return err
	})
	if err != nil {
		return person.Person{}, err
	}
	return created, nil
}
