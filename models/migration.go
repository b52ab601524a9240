package models

import (
	"log"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Site{}, &Violation{},
		&Checklist{}, &ChecklistProgress{},
		&User{}, &AuthorizedPerson{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

var defaultSites = []string{
	"Personal", "Office", "Grocery Store", "Home", "Gym", "School",
}

var defaultViolations = []string{
	"Equipment not properly maintained",
	"Safety protocols not followed",
	"Documentation incomplete or missing",
	"Work area not clean or organized",
	"Standard procedures not adhered to",
	"Personal protective equipment not used",
	"Emergency exits blocked or unmarked",
}

// SeedDefaults fills the catalog tables on first boot; non-empty tables are
// left alone.
func SeedDefaults() error {
	db := config.GetDB()

	var siteCount int64
	if err := db.Model(&Site{}).Count(&siteCount).Error; err != nil {
		return err
	}
	if siteCount == 0 {
		sites := make([]Site, 0, len(defaultSites))
		for _, name := range defaultSites {
			sites = append(sites, Site{Name: name})
		}
		if err := db.Create(&sites).Error; err != nil {
			return err
		}
	}

	var violationCount int64
	if err := db.Model(&Violation{}).Count(&violationCount).Error; err != nil {
		return err
	}
	if violationCount == 0 {
		violations := make([]Violation, 0, len(defaultViolations))
		for _, text := range defaultViolations {
			violations = append(violations, Violation{Text: text})
		}
		if err := db.Create(&violations).Error; err != nil {
			return err
		}
	}

	return nil
}
