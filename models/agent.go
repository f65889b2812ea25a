package models

import (
	"context"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
)

type Agent struct {
	ID      int    `gorm:"primary_key" json:"id"`
	AgentNm string `gorm:"size:255;not null;index" json:"agent_nm" binding:"required"`
	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"size:20" json:"phone"`
}

func (Agent) TableName() string {
	return "agents"
}

type NewAgent struct {
	AgentNm string `json:"agent_nm" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (input *NewAgent) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Agent](ctx, "agent_nm", input.AgentNm, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateAgent(ctx context.Context, input *NewAgent) (*Agent, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	agent := Agent{
		AgentNm: input.AgentNm,
		Address: input.Address,
		Phone:   input.Phone,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func UpdateAgent(ctx context.Context, id int, input *NewAgent) (*Agent, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	agent, err := utils.FetchModel[Agent](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(agent).
		Updates(map[string]interface{}{
			"AgentNm": input.AgentNm,
			"Address": input.Address,
			"Phone":   input.Phone,
		}).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func SearchAgents(ctx context.Context, query string) ([]*Agent, error) {
	db := config.GetDB()
	var results []*Agent
	err := db.WithContext(ctx).
		Where("agent_nm LIKE ?", "%"+query+"%").
		Order("agent_nm").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
