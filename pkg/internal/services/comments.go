package services

import (
	"errors"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ListComments(tx *gorm.DB, article models.Article) ([]models.Comment, error) {
	var items []models.Comment
	if err := tx.
		Where("article_id = ?", article.ID).
		Preload("Author").
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return items, fmt.Errorf("unable to list comments: %v", err)
	}
	return items, nil
}

func GetComment(tx *gorm.DB, article models.Article, id uint) (models.Comment, error) {
	var item models.Comment
	if err := tx.
		Where("id = ? AND article_id = ?", id, article.ID).
		Preload("Author").
		First(&item).Error; err != nil {
		return item, wrapStoreError(err, fmt.Sprintf("comment #%d", id))
	}
	return item, nil
}

// NewComment requires both the article and the author to be alive at the time of writing.
func NewComment(db *gorm.DB, articleID uint, authorID uint, body string) (models.Comment, error) {
	item := models.Comment{Body: strings.TrimSpace(body)}
	if len(item.Body) == 0 {
		return item, fmt.Errorf("%w: comment body cannot be empty", ErrValidation)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var article models.Article
		if err := tx.Where("id = ?", articleID).First(&article).Error; err != nil {
			return wrapStoreError(err, fmt.Sprintf("article #%d", articleID))
		}
		var author models.User
		if err := tx.Where("id = ?", authorID).First(&author).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: author #%d does not exist", ErrConstraint, authorID)
			}
			return wrapStoreError(err, "author")
		}

		item.ArticleID = article.ID
		item.AuthorID = author.ID
		if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
			return wrapStoreError(err, "comment")
		}
		item.Author = author
		return nil
	})

	return item, err
}

func DeleteComment(tx *gorm.DB, item models.Comment, user models.User) error {
	if item.AuthorID != user.ID {
		return fmt.Errorf("%w: only the author can delete this comment", ErrForbidden)
	}
	if err := tx.Delete(&models.Comment{}, item.ID).Error; err != nil {
		return fmt.Errorf("unable to delete comment: %v", err)
	}
	return nil
}
