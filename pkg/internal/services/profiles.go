package services

import (
	"fmt"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Profile struct {
	User      models.User
	Following bool
}

func IsFollowing(tx *gorm.DB, followerID, followedID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.Follower{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("unable to check follow relation: %v", err)
	}
	return count > 0, nil
}

// ListFollowedIDs returns which of the candidates the follower follows, every
// followed user when no candidate was given.
func ListFollowedIDs(tx *gorm.DB, followerID uint, candidates ...uint) ([]uint, error) {
	tx = tx.Model(&models.Follower{}).Where("follower_id = ?", followerID)
	if len(candidates) > 0 {
		tx = tx.Where("followed_id IN ?", candidates)
	}

	var ids []uint
	if err := tx.Pluck("followed_id", &ids).Error; err != nil {
		return ids, fmt.Errorf("unable to list followed users: %v", err)
	}
	return ids, nil
}

// GetProfile loads the profile of username as seen by viewer, viewer may be nil.
func GetProfile(tx *gorm.DB, viewer *uint, username string) (Profile, error) {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{User: user}
	if viewer != nil {
		if profile.Following, err = IsFollowing(tx, *viewer, user.ID); err != nil {
			return profile, err
		}
	}
	return profile, nil
}

// FollowUser is idempotent, following twice keeps a single relation row.
func FollowUser(tx *gorm.DB, follower models.User, target models.User) error {
	if follower.ID == target.ID {
		return fmt.Errorf("%w: you cannot follow yourself", ErrValidation)
	}

	relation := models.Follower{
		FollowerID: follower.ID,
		FollowedID: target.ID,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&relation).Error; err != nil {
		return wrapStoreError(err, "follow relation")
	}
	return nil
}

func UnfollowUser(tx *gorm.DB, follower models.User, target models.User) error {
	if err := tx.
		Where("follower_id = ? AND followed_id = ?", follower.ID, target.ID).
		Delete(&models.Follower{}).Error; err != nil {
		return fmt.Errorf("unable to delete follow relation: %v", err)
	}
	return nil
}
