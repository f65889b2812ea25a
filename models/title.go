package models

import (
	"context"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
)

type Title struct {
	ID         int             `gorm:"primary_key" json:"id"`
	Title      string          `gorm:"size:255;not null;index" json:"title" binding:"required"`
	TitleM     string          `gorm:"type:text" json:"title_m"`
	Isbn       string          `gorm:"size:20;index" json:"isbn"`
	Rate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	LanguageId int             `gorm:"default:0" json:"language_id"`
	AuthorId   int             `gorm:"default:0" json:"author_id"`
	CategoryId int             `gorm:"default:0" json:"category_id"`
}

func (Title) TableName() string {
	return "titles"
}

type NewTitle struct {
	Title      string          `json:"title" binding:"required"`
	TitleM     string          `json:"title_m"`
	Isbn       string          `json:"isbn"`
	Rate       decimal.Decimal `json:"rate"`
	LanguageId int             `json:"language_id"`
	AuthorId   int             `json:"author_id"`
	CategoryId int             `json:"category_id"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewTitle) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Title](ctx, "title", input.Title, id); err != nil {
		return err
	}
	if input.Isbn != "" {
		if err := utils.ValidateUnique[Title](ctx, "isbn", input.Isbn, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateTitle(ctx context.Context, input *NewTitle) (*Title, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	title := Title{
		Title:      input.Title,
		TitleM:     input.TitleM,
		Isbn:       input.Isbn,
		Rate:       input.Rate,
		LanguageId: input.LanguageId,
		AuthorId:   input.AuthorId,
		CategoryId: input.CategoryId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&title).Error; err != nil {
		return nil, err
	}
	return &title, nil
}

func UpdateTitle(ctx context.Context, id int, input *NewTitle) (*Title, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	title, err := utils.FetchModel[Title](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(title).
		Updates(map[string]interface{}{
			"Title":      input.Title,
			"TitleM":     input.TitleM,
			"Isbn":       input.Isbn,
			"Rate":       input.Rate,
			"LanguageId": input.LanguageId,
			"AuthorId":   input.AuthorId,
			"CategoryId": input.CategoryId,
		}).Error; err != nil {
		return nil, err
	}
	return title, nil
}

func GetTitle(ctx context.Context, id int) (*Title, error) {
	return utils.FetchModel[Title](ctx, id)
}

// SearchTitles matches both scripts so the lookup works for Malayalam and
// English entry alike.
func SearchTitles(ctx context.Context, query string) ([]*Title, error) {
	db := config.GetDB()
	var results []*Title
	err := db.WithContext(ctx).
		Where("title LIKE ? OR title_m LIKE ? OR isbn LIKE ?", "%"+query+"%", "%"+query+"%", "%"+query+"%").
		Order("title").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
