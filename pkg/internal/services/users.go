package services

import (
	"errors"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UserChanges struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	Image    *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func GetUser(tx *gorm.DB, id uint) (models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
		return user, wrapStoreError(err, "user")
	}
	return user, nil
}

func GetUserByUsername(tx *gorm.DB, username string) (models.User, error) {
	var user models.User
	if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
		return user, wrapStoreError(err, fmt.Sprintf("user %s", username))
	}
	return user, nil
}

// EnsureUserUnique checks username and email against every user except exceptID.
func EnsureUserUnique(tx *gorm.DB, exceptID uint, username, email string) error {
	var count int64
	if err := tx.Model(&models.User{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("unable to count existing users: %v", err)
	} else if count > 0 {
		return fmt.Errorf("%w: username has already been taken", ErrConstraint)
	}
	if err := tx.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("unable to count existing users: %v", err)
	} else if count > 0 {
		return fmt.Errorf("%w: email has already been taken", ErrConstraint)
	}
	return nil
}

func RegisterUser(tx *gorm.DB, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	var user models.User
	if len(username) == 0 || len(email) == 0 || len(password) == 0 {
		return user, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	if err := EnsureUserUnique(tx, 0, username, email); err != nil {
		return user, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return user, err
	}

	user = models.User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	if err := tx.Create(&user).Error; err != nil {
		return user, wrapStoreError(err, "user")
	}

	log.Debug().Uint("user", user.ID).Str("username", user.Username).Msg("A new user has been registered.")
	return user, nil
}

func AuthenticateUser(tx *gorm.DB, email, password string) (models.User, error) {
	var user models.User
	if err := tx.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, fmt.Errorf("%w: email or password is invalid", ErrUnauthorized)
		}
		return user, wrapStoreError(err, "user")
	}
	if !CheckPassword(user.Password, password) {
		return user, fmt.Errorf("%w: email or password is invalid", ErrUnauthorized)
	}
	return user, nil
}

func UpdateUser(tx *gorm.DB, user models.User, changes UserChanges) (models.User, error) {
	if changes.Username != nil {
		user.Username = strings.TrimSpace(*changes.Username)
	}
	if changes.Email != nil {
		user.Email = normalizeEmail(*changes.Email)
	}
	if len(user.Username) == 0 || len(user.Email) == 0 {
		return user, fmt.Errorf("%w: username and email cannot be empty", ErrValidation)
	}
	if changes.Bio != nil {
		user.Bio = *changes.Bio
	}
	if changes.Image != nil {
		user.Image = *changes.Image
	}
	if changes.Password != nil {
		if len(*changes.Password) == 0 {
			return user, fmt.Errorf("%w: password cannot be empty", ErrValidation)
		}
		hash, err := HashPassword(*changes.Password)
		if err != nil {
			return user, err
		}
		user.Password = hash
	}

	if err := EnsureUserUnique(tx, user.ID, user.Username, user.Email); err != nil {
		return user, err
	}
	if err := tx.Save(&user).Error; err != nil {
		return user, wrapStoreError(err, "user")
	}
	return user, nil
}

// DeleteUser removes the user with everything hanging off it in one transaction.
func DeleteUser(db *gorm.DB, user models.User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var articles []uint
		if err := tx.Model(&models.Article{}).
			Where("author_id = ?", user.ID).
			Pluck("id", &articles).Error; err != nil {
			return fmt.Errorf("unable to list articles of user: %v", err)
		}

		if len(articles) > 0 {
			if err := deleteArticleDependents(tx, articles); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", articles).Delete(&models.Article{}).Error; err != nil {
				return fmt.Errorf("unable to delete articles of user: %v", err)
			}
		}

		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("unable to delete comments of user: %v", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Favourite{}).Error; err != nil {
			return fmt.Errorf("unable to delete favourites of user: %v", err)
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", user.ID, user.ID).Delete(&models.Follower{}).Error; err != nil {
			return fmt.Errorf("unable to delete followers of user: %v", err)
		}
		if err := tx.Delete(&models.User{}, user.ID).Error; err != nil {
			return fmt.Errorf("unable to delete user: %v", err)
		}

		log.Debug().Uint("user", user.ID).Int("articles", len(articles)).Msg("A user has been deleted.")
		return nil
	})
}
