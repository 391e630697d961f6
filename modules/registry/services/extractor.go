package services

import (
	"iter"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

// ExtractRecords turns every data row of table into a resident.Record, keyed by the
// row's line number in the source sheet. Output order follows input order and the
// sequence can be ranged over more than once.
func ExtractRecords(table *sheet.Table) iter.Seq2[int, resident.Record] {
	n := NewFieldNormalizer(table.Columns(), ResidentSynonyms)
	return func(yield func(int, resident.Record) bool) {
		for line, row := range table.Rows() {
			if !yield(line, toRecord(n, row)) {
				return
			}
		}
	}
}

func toRecord(n *FieldNormalizer, row sheet.Row) resident.Record {
	text := func(field string) string {
		v, _ := n.Resolve(row, field)
		return v
	}
	// Phones exported as numbers arrive as "501234567.0".
	phone := func(field string) string {
		return CleanIntStr(text(field))
	}
	rec := resident.Record{
		Lastname:        text(resident.FieldLastname),
		FatherName:      text(resident.FieldFatherName),
		MotherName:      text(resident.FieldMotherName),
		Streetname:      text(resident.FieldStreetname),
		BuildingNumber:  text(resident.FieldBuildingNumber),
		Entrance:        text(resident.FieldEntrance),
		ApartmentNumber: text(resident.FieldApartmentNumber),
		Phone:           phone(resident.FieldPhone),
		Mobile:          phone(resident.FieldMobile),
		Mobile2:         phone(resident.FieldMobile2),
		Email:           text(resident.FieldEmail),
	}
	if v, ok := n.Resolve(row, resident.FieldCode); ok {
		rec.Code = ParseCode(v)
	}
	if v, ok := n.Resolve(row, resident.FieldStandingOrder); ok {
		rec.StandingOrder = SafeInt(v)
	}
	return rec
}
