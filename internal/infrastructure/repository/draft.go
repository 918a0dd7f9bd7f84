package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/database/models"
)

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Upsert(ctx context.Context, d domain.Draft) error {
	row := draftToModel(d)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Draft{}, "id = ?", id).Error
}

func (r *DraftRepository) ListByAuthor(ctx context.Context, authorID string) ([]domain.Draft, error) {
	var rows []models.Draft
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("last_saved DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	drafts := make([]domain.Draft, len(rows))
	for i, row := range rows {
		drafts[i] = draftFromModel(row)
	}
	return drafts, nil
}

func draftToModel(d domain.Draft) models.Draft {
	return models.Draft{
		ID:          d.ID,
		AuthorID:    d.AuthorID,
		Title:       d.Title,
		Description: d.Description,
		Body:        d.Body,
		Type:        d.Type,
		Visibility:  string(d.Visibility),
		Tags:        d.Tags,
		Metadata:    d.Metadata,
		LastSaved:   d.LastSaved,
	}
}

func draftFromModel(row models.Draft) domain.Draft {
	return domain.Draft{
		ID:          row.ID,
		AuthorID:    row.AuthorID,
		Title:       row.Title,
		Description: row.Description,
		Body:        row.Body,
		Type:        row.Type,
		Visibility:  domain.Visibility(row.Visibility),
		Tags:        row.Tags,
		Metadata:    row.Metadata,
		LastSaved:   row.LastSaved,
	}
}
