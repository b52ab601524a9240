package models

import (
	"context"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
)

// User holds login credentials. Passwords are bcrypt-hashed by the seeder,
// but legacy rows may still carry plaintext, so Login accepts both.
type User struct {
	ID       int    `gorm:"primary_key" json:"id"`
	EmpId    string `gorm:"column:empid;size:100;not null;unique" json:"empid" binding:"required"`
	Password string `gorm:"size:255;not null" json:"-" binding:"required"`
}

func (User) TableName() string { return "users" }

// AuthorizedPerson is the allow-list: an employee id must appear here in
// addition to having credentials before login succeeds.
type AuthorizedPerson struct {
	ID    int    `gorm:"primary_key" json:"id"`
	EmpId string `gorm:"column:empid;size:100;not null;unique" json:"empid" binding:"required"`
}

func (AuthorizedPerson) TableName() string { return "grm_pic" }

type LoginInfo struct {
	Token string `json:"token"`
	EmpId string `json:"empid"`
}

// Login verifies (empid, password) against the allow-list and the credentials
// table, then issues a signed time-limited token. The password check tries
// plaintext equality first and falls back to a bcrypt comparison.
func Login(ctx context.Context, empId string, password string) (*LoginInfo, error) {

	db := config.GetDB()

	var authorizedCount int64
	if err := db.WithContext(ctx).Model(&AuthorizedPerson{}).Where("empid = ?", empId).Count(&authorizedCount).Error; err != nil {
		return nil, err
	}
	if authorizedCount == 0 {
		return nil, ErrInvalidCredentials
	}

	var user User
	if err := db.WithContext(ctx).Model(&User{}).Where("empid = ?", empId).Take(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if password != user.Password {
		// bcrypt fallback for hashed rows
		if err := utils.ComparePassword(user.Password, password); err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	token, err := utils.JwtGenerate(user.EmpId)
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token: token,
		EmpId: user.EmpId,
	}, nil
}
