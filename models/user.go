package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"golang.org/x/crypto/bcrypt"
)

type Role struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:50;not null;unique" json:"name" binding:"required"`
}

func (Role) TableName() string {
	return "roles"
}

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Email     string    `gorm:"size:100;not null;unique" json:"email" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	RoleId    int       `gorm:"not null;default:0" json:"role_id"`
	BranchId  int       `gorm:"default:0" json:"branch_id"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type NewUser struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	RoleId   int    `json:"role_id"`
	BranchId int    `json:"branch_id"`
	IsActive *bool  `json:"is_active"`
}

type LoginInfo struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchId int    `json:"branch_id"`
}

func (result *User) PrepareGive() {
	result.Password = ""
}

func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", strings.ToLower(email)).Take(&user).Error; err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, errors.New("invalid email or password")
		}
		return nil, err
	}

	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	roleName := "User"
	if user.RoleId == 0 {
		roleName = "Admin"
	} else {
		var role Role
		if err := db.WithContext(ctx).First(&role, user.RoleId).Error; err == nil {
			roleName = role.Name
		}
	}

	token, err := utils.JwtGenerate(user.ID, roleName)
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:    token,
		Name:     user.Name,
		Role:     roleName,
		BranchId: user.BranchId,
	}, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	if !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", strings.ToLower(input.Email)).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate email")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	user := User{
		Email:    strings.ToLower(html.EscapeString(strings.TrimSpace(input.Email))),
		Name:     input.Name,
		Password: string(hashedPassword),
		RoleId:   input.RoleId,
		BranchId: input.BranchId,
		IsActive: isActive,
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	user.PrepareGive()
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var result User
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	result.PrepareGive()
	return &result, nil
}
