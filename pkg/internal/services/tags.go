package services

import (
	"errors"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NormalizeTagNames trims the names and drops blanks and duplicates, order is kept.
func NormalizeTagNames(names []string) []string {
	names = lo.Map(names, func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Uniq(lo.Compact(names))
}

func ListTags(tx *gorm.DB) ([]string, error) {
	var names []string
	if err := tx.Model(&models.Tag{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return names, fmt.Errorf("unable to list tags: %v", err)
	}
	return names, nil
}

func GetTagOrCreate(tx *gorm.DB, name string) (models.Tag, error) {
	var tag models.Tag
	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			err := tx.Create(&tag).Error
			return tag, wrapStoreError(err, "tag")
		}
		return tag, wrapStoreError(err, "tag")
	}
	return tag, nil
}

// SetArticleTags replaces the tag list of an article, tags no longer used are kept.
func SetArticleTags(tx *gorm.DB, articleID uint, names []string) ([]models.Tag, error) {
	names = NormalizeTagNames(names)

	if err := tx.Where("article_id = ?", articleID).Delete(&models.TagList{}).Error; err != nil {
		return nil, fmt.Errorf("unable to clear tag list: %v", err)
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag, err := GetTagOrCreate(tx, name)
		if err != nil {
			return tags, err
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return tags, nil
	}

	rows := lo.Map(tags, func(item models.Tag, _ int) models.TagList {
		return models.TagList{ArticleID: articleID, TagID: item.ID}
	})
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return tags, wrapStoreError(err, "tag list")
	}
	return tags, nil
}
