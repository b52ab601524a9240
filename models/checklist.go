package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ChecklistStatus string

const (
	ChecklistStatusOpen      ChecklistStatus = "open"
	ChecklistStatusCompleted ChecklistStatus = "completed"
)

// Checklist is a named inspection instance tied to a site. ViolationIds is a
// frozen ordered snapshot of violation ids taken at creation time; it does not
// track later catalog changes, and its ordering determines item numbering.
type Checklist struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"not null" json:"name" binding:"required"`
	Site         string          `gorm:"not null" json:"site" binding:"required"`
	ImageUrl     *string         `json:"image_url"`
	ViolationIds pq.Int64Array   `gorm:"type:integer[]" json:"violation_ids"`
	Status       ChecklistStatus `gorm:"size:20;not null;default:open" json:"status"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Checklist) TableName() string { return "grm_checklists" }

type NewChecklist struct {
	Name         string  `json:"name" binding:"required"`
	Site         string  `json:"site" binding:"required"`
	ViolationIds []int64 `json:"violation_ids"`
	ImageUrl     *string `json:"image_url"`
}

// ChecklistUpdate is a partial update: nil fields are left untouched.
type ChecklistUpdate struct {
	Name         *string `json:"name"`
	Site         *string `json:"site"`
	ViolationIds []int64 `json:"violation_ids"`
	ImageUrl     *string `json:"image_url"`
}

// column assignments for the supplied fields only
func (input *ChecklistUpdate) columns() map[string]interface{} {
	assignments := map[string]interface{}{}
	if input.Name != nil {
		assignments["name"] = *input.Name
	}
	if input.Site != nil {
		assignments["site"] = *input.Site
	}
	if input.ViolationIds != nil {
		assignments["violation_ids"] = pq.Int64Array(input.ViolationIds)
	}
	if input.ImageUrl != nil {
		assignments["image_url"] = *input.ImageUrl
	}
	return assignments
}

// ChecklistItem is one display row of a checklist, in snapshot order.
type ChecklistItem struct {
	ViolationId int        `json:"violation_id"`
	Text        string     `json:"text"`
	IsChecked   bool       `json:"is_checked"`
	CheckedAt   *time.Time `json:"checked_at"`
	Notes       *string    `json:"notes"`
}

type ChecklistDetail struct {
	Checklist
	Items []ChecklistItem `json:"items"`
}

// ChecklistSummary annotates a checklist with its progress counts.
type ChecklistSummary struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Site           string          `json:"site"`
	ImageUrl       *string         `json:"image_url"`
	ViolationIds   pq.Int64Array   `gorm:"type:integer[]" json:"violation_ids"`
	Status         ChecklistStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	TotalItems     int             `json:"total_items"`
	CompletedItems int             `json:"completed_items"`
}

// CreateChecklist inserts the checklist and eagerly materializes one progress
// row per snapshot entry in a single transaction, so a checklist without its
// progress rows (or the reverse) can never be observed.
func CreateChecklist(ctx context.Context, input *NewChecklist) (*Checklist, error) {

	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Site) == "" {
		return nil, NewValidationError("Name and site are required")
	}

	var checklist Checklist
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		violationIds := input.ViolationIds
		if violationIds == nil {
			// snapshot of the full catalog at this instant, id ascending
			if err := tx.Model(&Violation{}).Order("id ASC").Pluck("id", &violationIds).Error; err != nil {
				return err
			}
		}

		checklist = Checklist{
			Name:         input.Name,
			Site:         input.Site,
			ImageUrl:     input.ImageUrl,
			ViolationIds: pq.Int64Array(violationIds),
			Status:       ChecklistStatusOpen,
		}
		if err := tx.Create(&checklist).Error; err != nil {
			return err
		}

		progress := make([]ChecklistProgress, 0, len(violationIds))
		for _, violationId := range violationIds {
			progress = append(progress, ChecklistProgress{
				ChecklistId: checklist.ID,
				ViolationId: int(violationId),
				IsChecked:   false,
			})
		}
		if len(progress) > 0 {
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &checklist, nil
}

// GetChecklists lists all checklists, newest first, each annotated with
// total/completed progress counts. A checklist without progress rows reports 0.
func GetChecklists(ctx context.Context) ([]*ChecklistSummary, error) {

	db := config.GetDB()
	var results []*ChecklistSummary
	err := db.WithContext(ctx).Model(&Checklist{}).
		Select("grm_checklists.*, COUNT(cp.id) AS total_items, COUNT(CASE WHEN cp.is_checked THEN 1 END) AS completed_items").
		Joins("LEFT JOIN grm_checklist_progress cp ON cp.checklist_id = grm_checklists.id").
		Group("grm_checklists.id").
		Order("grm_checklists.created_at DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetChecklist returns the header plus one item per snapshot entry, in
// snapshot order. Ids whose violation row no longer exists are dropped.
func GetChecklist(ctx context.Context, id int) (*ChecklistDetail, error) {

	checklist, err := utils.FetchSingleModel[Checklist](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()

	var violations []Violation
	if len(checklist.ViolationIds) > 0 {
		if err := db.WithContext(ctx).Where("id IN ?", []int64(checklist.ViolationIds)).Find(&violations).Error; err != nil {
			return nil, err
		}
	}

	var progress []ChecklistProgress
	if err := db.WithContext(ctx).Where("checklist_id = ?", id).Find(&progress).Error; err != nil {
		return nil, err
	}

	return &ChecklistDetail{
		Checklist: *checklist,
		Items:     composeChecklistItems(checklist.ViolationIds, violations, progress),
	}, nil
}

// composeChecklistItems orders items by the snapshot, not by the numeric order
// of violation ids or the insertion order of progress rows. A snapshot id with
// no violation row is dropped; a missing progress row defaults to unchecked.
func composeChecklistItems(snapshot pq.Int64Array, violations []Violation, progress []ChecklistProgress) []ChecklistItem {

	textById := make(map[int]string, len(violations))
	for _, v := range violations {
		textById[v.ID] = v.Text
	}
	progressByViolation := make(map[int]ChecklistProgress, len(progress))
	for _, p := range progress {
		progressByViolation[p.ViolationId] = p
	}

	items := make([]ChecklistItem, 0, len(snapshot))
	for _, violationId := range snapshot {
		text, ok := textById[int(violationId)]
		if !ok {
			// violation deleted since the snapshot was taken
			continue
		}
		item := ChecklistItem{
			ViolationId: int(violationId),
			Text:        text,
		}
		if p, ok := progressByViolation[int(violationId)]; ok {
			item.IsChecked = p.IsChecked
			item.CheckedAt = p.CheckedAt
			item.Notes = p.Notes
		}
		items = append(items, item)
	}
	return items
}

func UpdateChecklist(ctx context.Context, id int, input *ChecklistUpdate) (*Checklist, error) {

	assignments := input.columns()
	if len(assignments) == 0 {
		return nil, NewValidationError("No fields to update")
	}

	checklist, err := utils.FetchSingleModel[Checklist](ctx, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(checklist).Updates(assignments).Error
	if err != nil {
		return nil, err
	}
	return checklist, nil
}

func DeleteChecklist(ctx context.Context, id int) (*Checklist, error) {

	result, err := utils.FetchSingleModel[Checklist](ctx, id)
	if err != nil {
		return nil, err
	}

	// db action (progress rows cascade)
	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CompleteChecklist marks the checklist as completed. This is a terminal flag:
// no transition back out is exposed, and unchecked items do not block it.
func CompleteChecklist(ctx context.Context, id int) (*Checklist, error) {

	checklist, err := utils.FetchSingleModel[Checklist](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(checklist).Update("status", ChecklistStatusCompleted).Error
	if err != nil {
		return nil, err
	}
	return checklist, nil
}
