package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/database/models"
)

type PromptRepository struct {
	db *gorm.DB
}

func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

func (r *PromptRepository) ListPublic(ctx context.Context) ([]domain.Prompt, error) {
	var rows []models.Prompt
	err := r.db.WithContext(ctx).
		Where("visibility = ?", string(domain.VisibilityPublic)).
		Order("c_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	prompts := make([]domain.Prompt, len(rows))
	for i, row := range rows {
		prompts[i] = promptFromModel(row)
	}
	return prompts, nil
}

func (r *PromptRepository) Get(ctx context.Context, id string) (domain.Prompt, error) {
	var row models.Prompt
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Prompt{}, domain.NotFoundError{Resource: "prompt"}
		}
		return domain.Prompt{}, err
	}
	return promptFromModel(row), nil
}

func (r *PromptRepository) Create(ctx context.Context, p domain.Prompt) error {
	row := promptToModel(p)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *PromptRepository) Update(ctx context.Context, p domain.Prompt) error {
	row := promptToModel(p)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *PromptRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Prompt{}, "id = ?", id).Error
}

func promptFromModel(row models.Prompt) domain.Prompt {
	return domain.Prompt{
		ID:            row.ID,
		AuthorID:      row.AuthorID,
		Title:         row.Title,
		Slug:          row.Slug,
		Description:   row.Description,
		Body:          row.Body,
		Type:          row.Type,
		Visibility:    domain.Visibility(row.Visibility),
		Compatibility: row.Compat,
		Tags:          row.Tags,
		ViewCount:     row.ViewCount,
		HeartCount:    row.HeartCount,
		SaveCount:     row.SaveCount,
		ForkCount:     row.ForkCount,
		CommentCount:  row.CommentCount,
		ParentID:      row.ParentID,
		CreatedAt:     row.CDate,
		UpdatedAt:     row.MDate,
	}
}

func promptToModel(p domain.Prompt) models.Prompt {
	return models.Prompt{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		Body:         p.Body,
		Type:         p.Type,
		Visibility:   string(p.Visibility),
		Compat:       p.Compatibility,
		Tags:         p.Tags,
		ViewCount:    p.ViewCount,
		HeartCount:   p.HeartCount,
		SaveCount:    p.SaveCount,
		ForkCount:    p.ForkCount,
		CommentCount: p.CommentCount,
		ParentID:     p.ParentID,
	}
}
