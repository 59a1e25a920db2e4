package api

import (
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (v *Controller) listTags(c *fiber.Ctx) error {
	tags, err := services.ListTags(v.db)
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []string{}
	}

	return c.JSON(fiber.Map{
		"tags": tags,
	})
}
