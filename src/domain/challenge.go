package domain

import (
	"time"
)

// Challenge is a weekly challenge row. Content fields are authored elsewhere;
// the rotation core only ever writes StartDate, EndDate and IsActive.
type Challenge struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Emoji       string     `gorm:"type:varchar(16)" json:"emoji"`
	StartDate   *time.Time `gorm:"type:timestamptz" json:"startDate"`
	EndDate     *time.Time `gorm:"type:timestamptz" json:"endDate"`
	IsActive    bool       `gorm:"not null;default:false" json:"isActive"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// HasWindow reports whether both window bounds are set.
func (c *Challenge) HasWindow() bool {
	return c.StartDate != nil && c.EndDate != nil
}

// Contains reports whether t falls inside the inclusive [StartDate, EndDate] window.
func (c *Challenge) Contains(t time.Time) bool {
	if !c.HasWindow() {
		return false
	}
	return !t.Before(*c.StartDate) && !t.After(*c.EndDate)
}

// Expired reports whether the window ended before t.
func (c *Challenge) Expired(t time.Time) bool {
	return c.EndDate != nil && t.After(*c.EndDate)
}

// StartsAfter reports whether the window begins strictly after t.
func (c *Challenge) StartsAfter(t time.Time) bool {
	return c.StartDate != nil && c.StartDate.After(t)
}

// ScheduleEntry is one computed window for a challenge.
type ScheduleEntry struct {
	ChallengeID int64
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
}
