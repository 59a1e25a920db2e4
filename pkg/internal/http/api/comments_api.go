package api

import (
	"fmt"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func (v *Controller) listComments(c *fiber.Ctx) error {
	article, err := services.GetArticleBySlug(v.db, c.Params("slug"), nil)
	if err != nil {
		return err
	}

	items, err := services.ListComments(v.db, article)
	if err != nil {
		return err
	}

	var followed []uint
	if viewer := exts.GetViewerID(c); viewer != nil && len(items) > 0 {
		authors := lo.Uniq(lo.Map(items, func(item models.Comment, _ int) uint {
			return item.AuthorID
		}))
		if followed, err = services.ListFollowedIDs(v.db, *viewer, authors...); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"comments": renderComments(items, followed),
	})
}

func (v *Controller) createComment(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	var data struct {
		Comment struct {
			Body string `json:"body" validate:"required,max=4096"`
		} `json:"comment"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	article, err := services.GetArticleBySlug(v.db, c.Params("slug"), nil)
	if err != nil {
		return err
	}

	item, err := services.NewComment(v.db, article.ID, user.ID, data.Comment.Body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"comment": renderComments([]models.Comment{item}, nil)[0],
	})
}

func (v *Controller) deleteComment(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	id, err := c.ParamsInt("commentId", 0)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: invalid comment id", services.ErrValidation)
	}

	article, err := services.GetArticleBySlug(v.db, c.Params("slug"), nil)
	if err != nil {
		return err
	}
	item, err := services.GetComment(v.db, article, uint(id))
	if err != nil {
		return err
	}

	if err := services.DeleteComment(v.db, item, user); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
