package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
)

// Site is referenced from checklists by name, not by foreign key,
// so deleting a site leaves existing checklists untouched.
type Site struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Site) TableName() string { return "grm_sites" }

type NewSite struct {
	Name string `json:"name" binding:"required"`
}

func CreateSite(ctx context.Context, input *NewSite) (*Site, error) {

	if strings.TrimSpace(input.Name) == "" {
		return nil, NewValidationError("Site name is required")
	}

	site := Site{
		Name: strings.TrimSpace(input.Name),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&site).Error
	if err != nil {
		return nil, err
	}

	return &site, nil
}

func GetSites(ctx context.Context) ([]*Site, error) {
	return utils.FetchAllModels[Site](ctx, "id ASC")
}

func DeleteSite(ctx context.Context, id int) (*Site, error) {

	result, err := utils.FetchSingleModel[Site](ctx, id)
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
