package person

import (
	"strings"
	"time"
)

// Fields are the identifying attributes of a Person.
type Fields struct {
	Lastname        string
	FatherName      string
	MotherName      string
	StreetCode      *int64
	BuildingNumber  string
	Entrance        string
	ApartmentNumber string
	Phone           string
	Mobile          string
	Mobile2         string
	Email           string
	StandingOrder   int
}

// Normalize trims text, puts phone numbers in canonical form and lower-cases the email.
func (f Fields) Normalize() Fields {
	f.Lastname = strings.TrimSpace(f.Lastname)
	f.FatherName = strings.TrimSpace(f.FatherName)
	f.MotherName = strings.TrimSpace(f.MotherName)
	f.BuildingNumber = strings.TrimSpace(f.BuildingNumber)
	f.Entrance = strings.TrimSpace(f.Entrance)
	f.ApartmentNumber = strings.TrimSpace(f.ApartmentNumber)
	f.Phone = NormalizePhone(f.Phone)
	f.Mobile = NormalizePhone(f.Mobile)
	f.Mobile2 = NormalizePhone(f.Mobile2)
	f.Email = NormalizeEmail(f.Email)
	return f
}

type Person struct {
	id        int64
	fields    Fields
	createdAt time.Time
	updatedAt time.Time
}

func New(id int64, fields Fields) Person {
	return Person{
		id:     id,
		fields: fields.Normalize(),
	}
}

func Hydrate(id int64, fields Fields, createdAt, updatedAt time.Time) Person {
	return Person{
		id:        id,
		fields:    fields,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p Person) ID() int64               { return p.id }
func (p Person) Fields() Fields          { return p.fields }
func (p Person) Lastname() string        { return p.fields.Lastname }
func (p Person) FatherName() string      { return p.fields.FatherName }
func (p Person) MotherName() string      { return p.fields.MotherName }
func (p Person) StreetCode() *int64      { return p.fields.StreetCode }
func (p Person) BuildingNumber() string  { return p.fields.BuildingNumber }
func (p Person) Entrance() string        { return p.fields.Entrance }
func (p Person) ApartmentNumber() string { return p.fields.ApartmentNumber }
func (p Person) Phone() string           { return p.fields.Phone }
func (p Person) Mobile() string          { return p.fields.Mobile }
func (p Person) Mobile2() string         { return p.fields.Mobile2 }
func (p Person) Email() string           { return p.fields.Email }
func (p Person) StandingOrder() int      { return p.fields.StandingOrder }
func (p Person) CreatedAt() time.Time    { return p.createdAt }
func (p Person) UpdatedAt() time.Time    { return p.updatedAt }
func (p Person) IsZero() bool            { return p.id == 0 }

// WithID returns a copy of p carrying id.
func (p Person) WithID(id int64) Person {
	p.id = id
	return p
}

// Patch is the set of attributes a reconciliation match may overwrite.
// A nil field, or an empty string, keeps the stored value.
type Patch struct {
	Lastname      *string
	Email         *string
	StandingOrder *int
	StreetCode    *int64
}

// Apply merges patch into p without regressing populated fields to empty.
func (p Person) Apply(patch Patch, at time.Time) Person {
	if v := patch.Lastname; v != nil && strings.TrimSpace(*v) != "" {
		p.fields.Lastname = strings.TrimSpace(*v)
	}
	if v := patch.Email; v != nil && NormalizeEmail(*v) != "" {
		p.fields.Email = NormalizeEmail(*v)
	}
	if patch.StandingOrder != nil {
		p.fields.StandingOrder = *patch.StandingOrder
	}
	if patch.StreetCode != nil {
		code := *patch.StreetCode
		p.fields.StreetCode = &code
	}
	p.updatedAt = at
	return p
}
