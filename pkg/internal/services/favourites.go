package services

import (
	"fmt"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavouriteArticle is idempotent, a pair is only ever stored once.
func FavouriteArticle(tx *gorm.DB, user models.User, article models.Article) error {
	favourite := models.Favourite{
		UserID:    user.ID,
		ArticleID: article.ID,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&favourite).Error; err != nil {
		return wrapStoreError(err, "favourite")
	}
	return nil
}

func UnfavouriteArticle(tx *gorm.DB, user models.User, article models.Article) error {
	if err := tx.
		Where("user_id = ? AND article_id = ?", user.ID, article.ID).
		Delete(&models.Favourite{}).Error; err != nil {
		return fmt.Errorf("unable to delete favourite: %v", err)
	}
	return nil
}

func CountFavourites(tx *gorm.DB, articleID uint) (int64, error) {
	var count int64
	if err := tx.Model(&models.Favourite{}).
		Where("article_id = ?", articleID).
		Count(&count).Error; err != nil {
		return count, fmt.Errorf("unable to count favourites: %v", err)
	}
	return count, nil
}

func IsFavourited(tx *gorm.DB, userID, articleID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.Favourite{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("unable to check favourite: %v", err)
	}
	return count > 0, nil
}
