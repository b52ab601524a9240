package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"gorm.io/gorm/clause"
)

// ChecklistProgress is the mutable per-violation-per-checklist record of
// whether that violation was found, when, and with what note. Exactly one row
// exists per id in the owning checklist's snapshot, created at creation time.
type ChecklistProgress struct {
	ID          int        `gorm:"primary_key" json:"id"`
	ChecklistId int        `gorm:"not null;uniqueIndex:idx_checklist_progress_item" json:"checklist_id"`
	ViolationId int        `gorm:"not null;uniqueIndex:idx_checklist_progress_item" json:"violation_id"`
	IsChecked   bool       `gorm:"not null;default:false" json:"is_checked"`
	CheckedAt   *time.Time `json:"checked_at"`
	Notes       *string    `json:"notes"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Checklist Checklist `gorm:"foreignKey:ChecklistId;constraint:OnDelete:CASCADE" json:"-"`
	Violation Violation `gorm:"foreignKey:ViolationId;constraint:OnDelete:CASCADE" json:"-"`
}

func (ChecklistProgress) TableName() string { return "grm_checklist_progress" }

type ProgressInput struct {
	IsChecked bool    `json:"is_checked"`
	Notes     *string `json:"notes"`
}

// ProgressEntry is a progress row joined with its violation text.
type ProgressEntry struct {
	ID          int        `json:"id"`
	ChecklistId int        `json:"checklist_id"`
	ViolationId int        `json:"violation_id"`
	Text        string     `json:"text"`
	IsChecked   bool       `json:"is_checked"`
	CheckedAt   *time.Time `json:"checked_at"`
	Notes       *string    `json:"notes"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UpsertChecklistProgress records the checked state of one item. The write is
// an insert-or-update keyed on (checklist_id, violation_id), so concurrent
// togglers of the same item serialize at the store and the last commit wins.
// checked_at is recomputed on every call; notes are replaced unconditionally,
// nil clears them. Membership of violationId in the checklist's snapshot is
// not validated.
func UpsertChecklistProgress(ctx context.Context, checklistId int, violationId int, input *ProgressInput) (*ChecklistProgress, error) {

	var checkedAt *time.Time
	if input.IsChecked {
		now := time.Now().UTC()
		checkedAt = &now
	}

	row := ChecklistProgress{
		ChecklistId: checklistId,
		ViolationId: violationId,
		IsChecked:   input.IsChecked,
		CheckedAt:   checkedAt,
		Notes:       input.Notes,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "checklist_id"}, {Name: "violation_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_checked": input.IsChecked,
			"checked_at": checkedAt,
			"notes":      input.Notes,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	// return the stored row, not the candidate
	var result ChecklistProgress
	err = db.WithContext(ctx).
		Where("checklist_id = ? AND violation_id = ?", checklistId, violationId).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetChecklistProgress lists a checklist's progress rows with their violation
// text, ordered by violation id.
func GetChecklistProgress(ctx context.Context, checklistId int) ([]*ProgressEntry, error) {

	db := config.GetDB()
	var results []*ProgressEntry
	err := db.WithContext(ctx).Model(&ChecklistProgress{}).
		Select("grm_checklist_progress.*, v.text AS text").
		Joins("JOIN grm_violations v ON v.id = grm_checklist_progress.violation_id").
		Where("grm_checklist_progress.checklist_id = ?", checklistId).
		Order("grm_checklist_progress.violation_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ResetChecklistProgress clears every progress row of the checklist in one
// statement. Zero affected rows (unknown checklist, empty checklist) is not
// an error, and running it twice yields the same state as once.
func ResetChecklistProgress(ctx context.Context, checklistId int) error {

	db := config.GetDB()
	return db.WithContext(ctx).Model(&ChecklistProgress{}).
		Where("checklist_id = ?", checklistId).
		Updates(map[string]interface{}{
			"is_checked": false,
			"checked_at": nil,
			"notes":      nil,
		}).Error
}
