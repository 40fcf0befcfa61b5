package entity

import (
	"time"
)

// Department values
const (
	DeptEngineer        = "engineer"
	DeptRegionalManager = "regional_manager"
	DeptStoreManager    = "store_manager"
	DeptAdmin           = "admin"
)

// Profile 用户档案 —— resolves a signed-in principal to {department, zone}
type Profile struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:200;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;size:100;not null"`
	Department   string     `json:"department" gorm:"size:32;not null;index"`
	Zone         string     `json:"zone" gorm:"size:50;index"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
