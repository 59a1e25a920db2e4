package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultArticleTake = 20
	MaxArticleTake     = 100
)

type ArticleChanges struct {
	Title       *string
	Description *string
	Body        *string
	Tags        *[]string
}

func FilterArticleWithTag(tx *gorm.DB, name string) *gorm.DB {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Table("tag_list").
		Select("tag_list.article_id").
		Joins("JOIN tags ON tags.id = tag_list.tag_id").
		Where("tags.name = ?", name)
	return tx.Where("articles.id IN (?)", sub)
}

func FilterArticleWithAuthor(tx *gorm.DB, username string) *gorm.DB {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.User{}).
		Select("id").
		Where("username = ?", username)
	return tx.Where("articles.author_id IN (?)", sub)
}

func FilterArticleWithFavouriter(tx *gorm.DB, username string) *gorm.DB {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Table("favourites").
		Select("favourites.article_id").
		Joins("JOIN users ON users.id = favourites.user_id").
		Where("users.username = ?", username)
	return tx.Where("articles.id IN (?)", sub)
}

func FilterArticleWithFollowedAuthors(tx *gorm.DB, followerID uint) *gorm.DB {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.Follower{}).
		Select("followed_id").
		Where("follower_id = ?", followerID)
	return tx.Where("articles.author_id IN (?)", sub)
}

func PreloadArticle(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Author")
}

func CountArticle(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Model(&models.Article{}).Count(&count).Error; err != nil {
		return count, fmt.Errorf("unable to count articles: %v", err)
	}
	return count, nil
}

func ListArticle(tx *gorm.DB, take int, offset int, viewer *uint) ([]*models.Article, error) {
	if take <= 0 {
		take = DefaultArticleTake
	} else if take > MaxArticleTake {
		take = MaxArticleTake
	}
	offset = max(offset, 0)

	var items []*models.Article
	if err := PreloadArticle(tx).
		Limit(take).Offset(offset).
		Order("articles.created_at DESC, articles.id DESC").
		Find(&items).Error; err != nil {
		return items, fmt.Errorf("unable to list articles: %v", err)
	}

	if err := LoadArticleMetrics(tx.Session(&gorm.Session{NewDB: true}), items, viewer); err != nil {
		return items, err
	}

	return items, nil
}

// LoadArticleMetrics fills the favourite counts and the viewer related flags in batch.
func LoadArticleMetrics(tx *gorm.DB, items []*models.Article, viewer *uint) error {
	if len(items) == 0 {
		return nil
	}

	idx := lo.Map(items, func(item *models.Article, _ int) uint {
		return item.ID
	})
	itemMap := lo.SliceToMap(items, func(item *models.Article) (uint, *models.Article) {
		return item.ID, item
	})

	var counts []struct {
		ArticleID uint
		Count     int64
	}
	if err := tx.Model(&models.Favourite{}).
		Select("article_id, COUNT(*) AS count").
		Where("article_id IN ?", idx).
		Group("article_id").
		Scan(&counts).Error; err != nil {
		return fmt.Errorf("unable to count favourites: %v", err)
	}
	for _, info := range counts {
		if item, ok := itemMap[info.ArticleID]; ok {
			item.Metric.FavouriteCount = info.Count
		}
	}

	if viewer == nil {
		return nil
	}

	var favourited []uint
	if err := tx.Model(&models.Favourite{}).
		Where("user_id = ? AND article_id IN ?", *viewer, idx).
		Pluck("article_id", &favourited).Error; err != nil {
		return fmt.Errorf("unable to list favourites: %v", err)
	}
	for _, id := range favourited {
		if item, ok := itemMap[id]; ok {
			item.Metric.IsFavourited = true
		}
	}

	authors := lo.Uniq(lo.Map(items, func(item *models.Article, _ int) uint {
		return item.AuthorID
	}))
	followed, err := ListFollowedIDs(tx, *viewer, authors...)
	if err != nil {
		return err
	}
	for _, item := range items {
		item.Metric.IsFollowingAuthor = lo.Contains(followed, item.AuthorID)
	}

	return nil
}

func GetArticleBySlug(tx *gorm.DB, slug string, viewer *uint) (models.Article, error) {
	var item models.Article
	if err := PreloadArticle(tx).
		Where("slug = ?", slug).
		First(&item).Error; err != nil {
		return item, wrapStoreError(err, fmt.Sprintf("article %s", slug))
	}

	if err := LoadArticleMetrics(tx.Session(&gorm.Session{NewDB: true}), []*models.Article{&item}, viewer); err != nil {
		return item, err
	}

	return item, nil
}

// NewArticleSlug derives a slug from the title, a numeric suffix is appended
// while the slug is taken by another article.
func NewArticleSlug(tx *gorm.DB, title string, exceptID uint) (string, error) {
	base := slug.Make(title)
	if len(base) == 0 {
		base = "article"
	}

	candidate := base
	for idx := 2; ; idx++ {
		var count int64
		if err := tx.Model(&models.Article{}).
			Where("slug = ? AND id <> ?", candidate, exceptID).
			Count(&count).Error; err != nil {
			return candidate, fmt.Errorf("unable to check slug: %v", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, idx)
	}
}

func validateArticle(item models.Article) error {
	if len(strings.TrimSpace(item.Title)) == 0 {
		return fmt.Errorf("%w: article title cannot be empty", ErrValidation)
	}
	if len(strings.TrimSpace(item.Body)) == 0 {
		return fmt.Errorf("%w: article body cannot be empty", ErrValidation)
	}
	return nil
}

// NewArticle stores the article with its tag list, the whole write is applied or nothing is.
func NewArticle(db *gorm.DB, authorID uint, item models.Article, tags []string) (models.Article, error) {
	if err := validateArticle(item); err != nil {
		return item, err
	}

	log.Debug().Uint("author", authorID).Str("title", item.Title).Msg("Posting an article...")
	start := time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := tx.Where("id = ?", authorID).First(&author).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: author #%d does not exist", ErrConstraint, authorID)
			}
			return wrapStoreError(err, "author")
		}

		var err error
		item.AuthorID = author.ID
		item.Language = DetectLanguage(item.Body)
		if item.Slug, err = NewArticleSlug(tx, item.Title, 0); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
			return wrapStoreError(err, "article")
		}
		if item.Tags, err = SetArticleTags(tx, item.ID, tags); err != nil {
			return err
		}

		item.Author = author
		return nil
	})
	if err != nil {
		return item, err
	}

	log.Debug().Uint("article", item.ID).Dur("elapsed", time.Since(start)).Msg("The article is posted.")
	return item, nil
}

func EditArticle(db *gorm.DB, item models.Article, changes ArticleChanges) (models.Article, error) {
	titleChanged := changes.Title != nil && *changes.Title != item.Title
	if changes.Title != nil {
		item.Title = *changes.Title
	}
	if changes.Description != nil {
		item.Description = *changes.Description
	}
	if changes.Body != nil {
		item.Body = *changes.Body
	}
	if err := validateArticle(item); err != nil {
		return item, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if titleChanged {
			if item.Slug, err = NewArticleSlug(tx, item.Title, item.ID); err != nil {
				return err
			}
		}
		if changes.Body != nil {
			item.Language = DetectLanguage(item.Body)
		}

		if err := tx.Omit(clause.Associations).Save(&item).Error; err != nil {
			return wrapStoreError(err, "article")
		}
		if changes.Tags != nil {
			if item.Tags, err = SetArticleTags(tx, item.ID, *changes.Tags); err != nil {
				return err
			}
		}
		return nil
	})

	return item, err
}

// deleteArticleDependents removes every row pointing at the articles, the tags stay.
func deleteArticleDependents(tx *gorm.DB, articles []uint) error {
	if err := tx.Where("article_id IN ?", articles).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("unable to delete comments: %v", err)
	}
	if err := tx.Where("article_id IN ?", articles).Delete(&models.TagList{}).Error; err != nil {
		return fmt.Errorf("unable to delete tag list: %v", err)
	}
	if err := tx.Where("article_id IN ?", articles).Delete(&models.Favourite{}).Error; err != nil {
		return fmt.Errorf("unable to delete favourites: %v", err)
	}
	return nil
}

func DeleteArticle(db *gorm.DB, item models.Article) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := deleteArticleDependents(tx, []uint{item.ID}); err != nil {
			return err
		}
		if err := tx.Delete(&models.Article{}, item.ID).Error; err != nil {
			return fmt.Errorf("unable to delete article: %v", err)
		}
		return nil
	})
}
