package api

import (
	"fmt"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (v *Controller) articleFilter(c *fiber.Ctx) *gorm.DB {
	tx := v.db

	if len(c.Query("tag")) > 0 {
		tx = services.FilterArticleWithTag(tx, c.Query("tag"))
	}
	if len(c.Query("author")) > 0 {
		tx = services.FilterArticleWithAuthor(tx, c.Query("author"))
	}
	if len(c.Query("favorited")) > 0 {
		tx = services.FilterArticleWithFavouriter(tx, c.Query("favorited"))
	}

	return tx
}

func (v *Controller) renderArticleList(c *fiber.Ctx, filter func() *gorm.DB) error {
	take := c.QueryInt("limit", services.DefaultArticleTake)
	offset := c.QueryInt("offset", 0)

	count, err := services.CountArticle(filter())
	if err != nil {
		return err
	}

	items, err := services.ListArticle(filter(), take, offset, exts.GetViewerID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"articles":      renderArticles(items),
		"articlesCount": count,
	})
}

func (v *Controller) listArticles(c *fiber.Ctx) error {
	return v.renderArticleList(c, func() *gorm.DB {
		return v.articleFilter(c)
	})
}

func (v *Controller) listFeedArticles(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	return v.renderArticleList(c, func() *gorm.DB {
		return services.FilterArticleWithFollowedAuthors(v.db, user.ID)
	})
}

func (v *Controller) getArticle(c *fiber.Ctx) error {
	item, err := services.GetArticleBySlug(v.db, c.Params("slug"), exts.GetViewerID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"article": renderArticle(item),
	})
}

func (v *Controller) createArticle(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	var data struct {
		Article struct {
			Title       string   `json:"title" validate:"required,max=1024"`
			Description string   `json:"description" validate:"max=4096"`
			Body        string   `json:"body" validate:"required"`
			TagList     []string `json:"tagList" validate:"dive,max=128"`
		} `json:"article"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	item, err := services.NewArticle(v.db, user.ID, models.Article{
		Title:       data.Article.Title,
		Description: data.Article.Description,
		Body:        data.Article.Body,
	}, data.Article.TagList)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"article": renderArticle(item),
	})
}

func (v *Controller) editArticle(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	var data struct {
		Article struct {
			Title       *string   `json:"title" validate:"omitempty,max=1024"`
			Description *string   `json:"description" validate:"omitempty,max=4096"`
			Body        *string   `json:"body"`
			TagList     *[]string `json:"tagList" validate:"omitempty,dive,max=128"`
		} `json:"article"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	item, err := services.GetArticleBySlug(v.db, c.Params("slug"), nil)
	if err != nil {
		return err
	} else if item.AuthorID != user.ID {
		return fmt.Errorf("%w: only the author can edit this article", services.ErrForbidden)
	}

	item, err = services.EditArticle(v.db, item, services.ArticleChanges{
		Title:       data.Article.Title,
		Description: data.Article.Description,
		Body:        data.Article.Body,
		Tags:        data.Article.TagList,
	})
	if err != nil {
		return err
	}

	// Reload for fresh tags and metrics, the slug may have changed
	item, err = services.GetArticleBySlug(v.db, item.Slug, &user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"article": renderArticle(item),
	})
}

func (v *Controller) deleteArticle(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	item, err := services.GetArticleBySlug(v.db, c.Params("slug"), nil)
	if err != nil {
		return err
	} else if item.AuthorID != user.ID {
		return fmt.Errorf("%w: only the author can delete this article", services.ErrForbidden)
	}

	if err := services.DeleteArticle(v.db, item); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
