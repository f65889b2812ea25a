package models

import (
	"context"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
)

type Branch struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BranchesNm string `gorm:"size:255;not null;index" json:"branches_nm" binding:"required"`
	Address    string `gorm:"type:text" json:"address"`
}

func (Branch) TableName() string {
	return "branches"
}

type NewBranch struct {
	BranchesNm string `json:"branches_nm" binding:"required"`
	Address    string `json:"address"`
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {
	if err := utils.ValidateUnique[Branch](ctx, "branches_nm", input.BranchesNm, 0); err != nil {
		return nil, err
	}

	branch := Branch{
		BranchesNm: input.BranchesNm,
		Address:    input.Address,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func SearchBranches(ctx context.Context, query string) ([]*Branch, error) {
	db := config.GetDB()
	var results []*Branch
	err := db.WithContext(ctx).
		Where("branches_nm LIKE ?", "%"+query+"%").
		Order("branches_nm").
		Limit(50).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
