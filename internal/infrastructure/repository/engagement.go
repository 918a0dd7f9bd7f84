package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/database/models"
)

// EngagementRepository writes the composite-keyed social rows. Inserts and
// deletes are both idempotent so an optimistic write racing its own echo
// cannot fail.
type EngagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

func (r *EngagementRepository) InsertReaction(ctx context.Context, reaction domain.Reaction) error {
	row := models.Reaction{
		UserID:   reaction.UserID,
		PromptID: reaction.PromptID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "prompt_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *EngagementRepository) DeleteReaction(ctx context.Context, userID, promptID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND prompt_id = ?", userID, promptID).
		Delete(&models.Reaction{}).Error
}

func (r *EngagementRepository) InsertSave(ctx context.Context, save domain.Save) error {
	row := models.Save{
		UserID:       save.UserID,
		PromptID:     save.PromptID,
		CollectionID: save.CollectionID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "prompt_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *EngagementRepository) DeleteSave(ctx context.Context, userID, promptID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND prompt_id = ?", userID, promptID).
		Delete(&models.Save{}).Error
}

func (r *EngagementRepository) InsertFollow(ctx context.Context, follow domain.Follow) error {
	row := models.Follow{
		FollowerID:  follow.FollowerID,
		FollowingID: follow.FollowingID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *EngagementRepository) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}
