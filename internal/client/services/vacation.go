package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
)

// VacationService manages absences, at most one meaningful absence per day.
type VacationService interface {
	List(ctx context.Context) ([]*models.VacationAbsence, error)
	// Record stores an absence for a day. When the day already has one, its
	// local id is reused so the new absence replaces it.
	Record(ctx context.Context, day time.Time, kind models.AbsenceType, description *string) (*models.VacationAbsence, error)
	Delete(ctx context.Context, localID string) error
}

type vacationService struct {
	entries EntryService
}

func NewVacationService(entries EntryService) VacationService {
	return &vacationService{entries: entries}
}

func (s *vacationService) List(ctx context.Context) ([]*models.VacationAbsence, error) {
	records, err := s.entries.Load(ctx, models.RecordTypeVacation)
	if err != nil {
		return nil, err
	}
	out := make([]*models.VacationAbsence, 0, len(records))
	for _, r := range records {
		if v, ok := r.(*models.VacationAbsence); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *vacationService) Record(ctx context.Context, day time.Time, kind models.AbsenceType, description *string) (*models.VacationAbsence, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	y, m, d := day.In(time.Local).Date()
	v := &models.VacationAbsence{
		Day:         models.NewTimestamp(time.Date(y, m, d, 0, 0, 0, 0, time.Local)),
		Description: description,
		TypeIndex:   kind,
	}

	dayKey := v.DayKey()
	for _, old := range existing {
		if old.DayKey() == dayKey {
			v.Meta = old.Meta
			v.Key = old.Key
			break
		}
	}

	if _, err := s.entries.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *vacationService) Delete(ctx context.Context, localID string) error {
	return s.entries.Delete(ctx, models.RecordTypeVacation, localID)
}
