package resident

// Field names of a canonical resident record.
const (
	FieldCode            = "code"
	FieldLastname        = "lastname"
	FieldFatherName      = "father_name"
	FieldMotherName      = "mother_name"
	FieldStreetname      = "streetname"
	FieldBuildingNumber  = "buildingnumber"
	FieldEntrance        = "entrance"
	FieldApartmentNumber = "apartmentnumber"
	FieldPhone           = "phone"
	FieldMobile          = "mobile"
	FieldMobile2         = "mobile2"
	FieldEmail           = "email"
	FieldStandingOrder   = "standing_order"
)

// Record is one resident row after column normalization and type coercion.
// String fields are never absent; Code is nil when the row carries no usable identifier.
type Record struct {
	Code            *int64
	Lastname        string
	FatherName      string
	MotherName      string
	Streetname      string
	BuildingNumber  string
	Entrance        string
	ApartmentNumber string
	Phone           string
	Mobile          string
	Mobile2         string
	Email           string
	StandingOrder   int
}

// Status is the terminal state of one reconciled row.
type Status string

const (
	StatusInserted Status = "inserted"
	StatusUpdated  Status = "updated"
	StatusFailed   Status = "failed"
)
