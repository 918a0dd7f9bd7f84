package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/database/models"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Get(ctx context.Context, id string) (domain.Comment, error) {
	var row models.Comment
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
		}
		return domain.Comment{}, err
	}
	return domain.Comment{
		ID:        row.ID,
		PromptID:  row.PromptID,
		AuthorID:  row.AuthorID,
		Body:      row.Body,
		CreatedAt: row.CDate,
	}, nil
}

func (r *CommentRepository) Create(ctx context.Context, c domain.Comment) error {
	row := models.Comment{
		ID:       c.ID,
		PromptID: c.PromptID,
		AuthorID: c.AuthorID,
		Body:     c.Body,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}
