package viewmodels

import "time"

type PersonListItem struct {
	PersonID        int64     `json:"personid"`
	Lastname        string    `json:"lastname"`
	FatherName      string    `json:"father_name,omitempty"`
	MotherName      string    `json:"mother_name,omitempty"`
	StreetCode      *int64    `json:"streetcode"`
	BuildingNumber  string    `json:"buildingnumber,omitempty"`
	Entrance        string    `json:"entrance,omitempty"`
	ApartmentNumber string    `json:"apartmentnumber,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Mobile          string    `json:"mobile,omitempty"`
	Mobile2         string    `json:"mobile2,omitempty"`
	Email           string    `json:"email,omitempty"`
	StandingOrder   int       `json:"standing_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type PersonsPage struct {
	Items  []*PersonListItem `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type MissingStreet struct {
	BatchID   string    `json:"batch_id"`
	Row       int       `json:"row"`
	Name      string    `json:"streetname"`
	CreatedAt time.Time `json:"created_at"`
}

type Street struct {
	Code int64  `json:"streetcode"`
	Name string `json:"streetname"`
}

type Outcome struct {
	Row      int    `json:"row"`
	Status   string `json:"status"`
	PersonID *int64 `json:"personid"`
	Message  string `json:"message,omitempty"`
}
