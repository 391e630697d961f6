package mappers

import (
	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/modules/registry/presentation/viewmodels"
)

func PersonToListItem(p person.Person) *viewmodels.PersonListItem {
	return &viewmodels.PersonListItem{
		PersonID:        p.ID(),
		Lastname:        p.Lastname(),
		FatherName:      p.FatherName(),
		MotherName:      p.MotherName(),
		StreetCode:      p.StreetCode(),
		BuildingNumber:  p.BuildingNumber(),
		Entrance:        p.Entrance(),
		ApartmentNumber: p.ApartmentNumber(),
		Phone:           p.Phone(),
		Mobile:          p.Mobile(),
		Mobile2:         p.Mobile2(),
		Email:           p.Email(),
		StandingOrder:   p.StandingOrder(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

func MissingStreetToViewModel(m street.MissingStreet) *viewmodels.MissingStreet {
	return &viewmodels.MissingStreet{
		BatchID:   m.BatchID.String(),
		Row:       m.Row,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

func StreetToViewModel(s street.Street) *viewmodels.Street {
	return &viewmodels.Street{Code: s.Code, Name: s.Name}
}

func OutcomeToViewModel(o ingestion.Outcome) *viewmodels.Outcome {
	return &viewmodels.Outcome{
		Row:      o.Row,
		Status:   string(o.Status),
		PersonID: o.PersonID,
		Message:  o.Message,
	}
}

// MapAll applies fn to every element of in.
func MapAll[T, V any](in []T, fn func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
