package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/database/models"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (domain.User, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NotFoundError{Resource: "profile"}
		}
		return domain.User{}, err
	}
	return domain.User{
		ID:                 profile.ID,
		Email:              profile.Email,
		Username:           profile.Username,
		DisplayName:        profile.DisplayName,
		Bio:                profile.Bio,
		Links:              profile.Links,
		Reputation:         profile.Reputation,
		SubscriptionStatus: domain.SubscriptionStatus(profile.SubscriptionStatus),
		IsAffiliate:        profile.IsAffiliate,
	}, nil
}

func (r *ProfileRepository) Create(ctx context.Context, user domain.User) error {
	profile := models.Profile{
		ID:                 user.ID,
		Email:              user.Email,
		Username:           user.Username,
		DisplayName:        user.DisplayName,
		Bio:                user.Bio,
		Links:              user.Links,
		Reputation:         user.Reputation,
		SubscriptionStatus: string(user.SubscriptionStatus),
		IsAffiliate:        user.IsAffiliate,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&profile).Error
}

// SubscriptionStatus returns the billing feed's current status for a user.
// Users without a subscription row report the empty status.
func (r *ProfileRepository) SubscriptionStatus(ctx context.Context, userID string) (domain.SubscriptionStatus, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return domain.SubscriptionStatus(sub.Status), nil
}
