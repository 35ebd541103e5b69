package repository

import (
	"context"
	"errors"
	"time"

	"github.com/partyplaylist/backend/src/domain"
	"gorm.io/gorm"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// ChallengeUpdate holds the scheduler-owned columns. Nil fields are left untouched.
type ChallengeUpdate struct {
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
}

func (u ChallengeUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.StartDate != nil {
		updates["start_date"] = *u.StartDate
	}
	if u.EndDate != nil {
		updates["end_date"] = *u.EndDate
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	return updates
}

// ListChallenges returns every challenge ordered by id, which is the rotation order
func (r *ChallengeRepository) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

// FindChallengeById retrieves a specific challenge by its ID, or nil if it does not exist
func (r *ChallengeRepository) FindChallengeById(ctx context.Context, id int64) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// FindActive retrieves all challenges flagged active, ordered by id
func (r *ChallengeRepository) FindActive(ctx context.Context) ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

// FindChallengeContaining returns the lowest-id challenge whose window contains t, or nil if none does
func (r *ChallengeRepository) FindChallengeContaining(ctx context.Context, t time.Time) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", t, t).
		Order("id ASC").
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// FindUpcoming returns up to limit challenges starting strictly after t, soonest first
func (r *ChallengeRepository) FindUpcoming(ctx context.Context, after time.Time, limit int) ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge
	err := r.db.WithContext(ctx).
		Where("start_date > ?", after).
		Order("start_date ASC").
		Order("id ASC").
		Limit(limit).
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// UpdateChallenge writes the given scheduler columns of a challenge.
// It returns gorm.ErrRecordNotFound when the row does not exist.
func (r *ChallengeRepository) UpdateChallenge(ctx context.Context, id int64, update ChallengeUpdate) error {
	updates := update.columns()
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&domain.Challenge{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Activate flips is_active to true only if the row is currently inactive.
// It returns false when another writer got there first.
func (r *ChallengeRepository) Activate(ctx context.Context, id int64) (bool, error) {
	return r.compareAndSetActive(ctx, id, false, true)
}

// Deactivate flips is_active to false only if the row is currently active.
func (r *ChallengeRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	return r.compareAndSetActive(ctx, id, true, false)
}

func (r *ChallengeRepository) compareAndSetActive(ctx context.Context, id int64, expected, next bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Challenge{}).
		Where("id = ? AND is_active = ?", id, expected).
		Update("is_active", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ApplySchedule writes every entry in one transaction. Either all windows land or none do.
func (r *ChallengeRepository) ApplySchedule(ctx context.Context, entries []domain.ScheduleEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewChallengeRepository(tx)
		for _, entry := range entries {
			start, end, active := entry.StartDate, entry.EndDate, entry.IsActive
			if err := txRepo.UpdateChallenge(ctx, entry.ChallengeID, ChallengeUpdate{
				StartDate: &start,
				EndDate:   &end,
				IsActive:  &active,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
