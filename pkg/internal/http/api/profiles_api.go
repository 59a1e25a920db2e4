package api

import (
	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (v *Controller) getProfile(c *fiber.Ctx) error {
	profile, err := services.GetProfile(v.db, exts.GetViewerID(c), c.Params("username"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"profile": renderProfile(profile.User, profile.Following),
	})
}

func (v *Controller) followProfile(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	target, err := services.GetUserByUsername(v.db, c.Params("username"))
	if err != nil {
		return err
	}
	if err := services.FollowUser(v.db, user, target); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"profile": renderProfile(target, true),
	})
}

func (v *Controller) unfollowProfile(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	target, err := services.GetUserByUsername(v.db, c.Params("username"))
	if err != nil {
		return err
	}
	if err := services.UnfollowUser(v.db, user, target); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"profile": renderProfile(target, false),
	})
}
