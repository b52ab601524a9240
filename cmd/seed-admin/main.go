// seed-admin creates or updates the default console user (empid: admin) and
// puts it on the login allow-list.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"gorm.io/gorm"
)

const (
	adminEmpId    = "admin"
	adminPassword = "admin123"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("empid = ?", adminEmpId).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			EmpId:    adminEmpId,
			Password: string(hashed),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := db.WithContext(ctx).Model(&models.User{}).Where("empid = ?", adminEmpId).Update("password", string(hashed)).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
			os.Exit(1)
		}
	}

	// Allow-list entry; login requires it in addition to credentials.
	var authorized models.AuthorizedPerson
	err = db.WithContext(ctx).Model(&models.AuthorizedPerson{}).Where("empid = ?", adminEmpId).First(&authorized).Error
	if err == gorm.ErrRecordNotFound {
		if err := db.WithContext(ctx).Create(&models.AuthorizedPerson{EmpId: adminEmpId}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to authorize admin user: %v\n", err)
			os.Exit(1)
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup authorized person: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded admin user: empid=%q\n", adminEmpId)
}
