package models

import (
	"time"
)

// AbsenceType classifies a vacation absence; persisted as typeIndex.
type AbsenceType int

const (
	AbsenceVacation AbsenceType = iota
	AbsenceSick
	AbsenceChildSick
	AbsenceSpecialLeave
	AbsenceUnpaid
)

var absenceLabels = [...]string{"Urlaub", "Krankheit", "Kind krank", "Sonderurlaub", "Unbezahlt"}

func (a AbsenceType) Valid() bool {
	return a >= AbsenceVacation && a <= AbsenceUnpaid
}

func (a AbsenceType) String() string {
	if !a.Valid() {
		return absenceLabels[0]
	}
	return absenceLabels[a]
}

// VacationAbsence marks one calendar day as an absence.
type VacationAbsence struct {
	Meta `json:"-"`

	Key         *int64      `json:"key,omitempty"`
	Day         Timestamp   `json:"day"`
	Description *string     `json:"description"`
	TypeIndex   AbsenceType `json:"typeIndex"`
}

func (v *VacationAbsence) RecordType() RecordType { return RecordTypeVacation }

func (v *VacationAbsence) SortTime() time.Time { return v.Day.Time }

// DayKey is the absence's calendar date in the local zone, YYYY-MM-DD.
func (v *VacationAbsence) DayKey() string {
	return DayKey(v.Day.Time)
}

// DayKey formats t as a local calendar date.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}

func (v *VacationAbsence) Validate() error {
	if v.Day.IsZero() {
		return invalid("absence without day")
	}
	if !v.TypeIndex.Valid() {
		return invalid("absence type index %d out of range", v.TypeIndex)
	}
	return nil
}
