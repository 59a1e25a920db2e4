package api

import (
	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (v *Controller) favouriteArticle(c *fiber.Ctx) error {
	return v.toggleFavourite(c, services.FavouriteArticle)
}

func (v *Controller) unfavouriteArticle(c *fiber.Ctx) error {
	return v.toggleFavourite(c, services.UnfavouriteArticle)
}

func (v *Controller) toggleFavourite(c *fiber.Ctx, apply func(*gorm.DB, models.User, models.Article) error) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	item, err := services.GetArticleBySlug(v.db, c.Params("slug"), nil)
	if err != nil {
		return err
	}
	if err := apply(v.db, user, item); err != nil {
		return err
	}

	item, err = services.GetArticleBySlug(v.db, item.Slug, &user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"article": renderArticle(item),
	})
}
