package person

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/mishloach/pkg/constants"
)

type CreateDTO struct {
	PersonID        *int64 `json:"personid" validate:"omitempty,gt=0"`
	Lastname        string `json:"lastname" validate:"required"`
	FatherName      string `json:"father_name"`
	MotherName      string `json:"mother_name"`
	StreetCode      *int64 `json:"streetcode" validate:"omitempty,gt=0"`
	BuildingNumber  string `json:"buildingnumber"`
	Entrance        string `json:"entrance"`
	ApartmentNumber string `json:"apartmentnumber"`
	Phone           string `json:"phone"`
	Mobile          string `json:"mobile"`
	Mobile2         string `json:"mobile2"`
	Email           string `json:"email" validate:"omitempty,email"`
	StandingOrder   int    `json:"standing_order" validate:"min=0"`
}

func (d *CreateDTO) Normalize() {
	d.Lastname = strings.TrimSpace(d.Lastname)
	d.FatherName = strings.TrimSpace(d.FatherName)
	d.MotherName = strings.TrimSpace(d.MotherName)
	d.Email = strings.TrimSpace(d.Email)
}

// Ok validates the DTO and returns field -> message for every failed rule.
func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}
	var validatorErrs validator.ValidationErrors
	if !asValidationErrors(errs, &validatorErrs) {
		return map[string]string{"": errs.Error()}, false
	}
	out := make(map[string]string, len(validatorErrs))
	for _, fe := range validatorErrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out, false
}

func (d *CreateDTO) Fields() Fields {
	return Fields{
		Lastname:        d.Lastname,
		FatherName:      d.FatherName,
		MotherName:      d.MotherName,
		StreetCode:      d.StreetCode,
		BuildingNumber:  d.BuildingNumber,
		Entrance:        d.Entrance,
		ApartmentNumber: d.ApartmentNumber,
		Phone:           d.Phone,
		Mobile:          d.Mobile,
		Mobile2:         d.Mobile2,
		Email:           d.Email,
		StandingOrder:   d.StandingOrder,
	}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*target = v
	}
	return ok
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
