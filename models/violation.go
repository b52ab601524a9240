package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"gorm.io/gorm"
)

// Violation is a standardized audit-finding description, managed globally
// and referenced by checklists through their frozen id snapshot.
type Violation struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Text      string    `gorm:"not null" json:"text" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Violation) TableName() string { return "grm_violations" }

type NewViolation struct {
	Text string `json:"text" binding:"required"`
}

type ViolationOrderInput struct {
	Id   int    `json:"id" binding:"required"`
	Text string `json:"text" binding:"required"`
}

func CreateViolation(ctx context.Context, input *NewViolation) (*Violation, error) {

	if strings.TrimSpace(input.Text) == "" {
		return nil, NewValidationError("Violation is required")
	}

	violation := Violation{
		Text: input.Text,
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&violation).Error
	if err != nil {
		return nil, err
	}

	return &violation, nil
}

func GetViolations(ctx context.Context) ([]*Violation, error) {
	return utils.FetchAllModels[Violation](ctx, "id ASC")
}

// DeleteViolation removes the definition; dependent progress rows go with it
// (ON DELETE CASCADE). Checklist snapshots keep the stale id.
func DeleteViolation(ctx context.Context, id int) (*Violation, error) {

	result, err := utils.FetchSingleModel[Violation](ctx, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ReorderViolations overwrites the text of each listed row, in array order,
// inside one transaction. An entry whose id matches no row aborts the whole
// batch; duplicate ids overwrite the same row, last write wins.
func ReorderViolations(ctx context.Context, inputs []ViolationOrderInput) error {

	if len(inputs) == 0 {
		return NewValidationError("Violations are required")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, input := range inputs {
			result := tx.Model(&Violation{}).Where("id = ?", input.Id).Update("text", input.Text)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return utils.ErrorRecordNotFound
			}
		}
		return nil
	})
}
