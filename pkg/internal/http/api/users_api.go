package api

import (
	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (v *Controller) registerUser(c *fiber.Ctx) error {
	var data struct {
		User struct {
			Username string `json:"username" validate:"required,max=128"`
			Email    string `json:"email" validate:"required,email,max=256"`
			Password string `json:"password" validate:"required,min=6,max=72"`
		} `json:"user"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	// The user is only kept when a token could be issued for it
	var user models.User
	var token string
	if err := v.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = services.RegisterUser(tx, data.User.Username, data.User.Email, data.User.Password); err != nil {
			return err
		}
		token, err = services.NewUserToken(user)
		return err
	}); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": renderUser(user, token),
	})
}

func (v *Controller) loginUser(c *fiber.Ctx) error {
	var data struct {
		User struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		} `json:"user"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	user, err := services.AuthenticateUser(v.db, data.User.Email, data.User.Password)
	if err != nil {
		return err
	}

	token, err := services.NewUserToken(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user": renderUser(user, token),
	})
}

func (v *Controller) getCurrentUser(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)
	token, _ := c.Locals("token").(string)

	return c.JSON(fiber.Map{
		"user": renderUser(user, token),
	})
}

func (v *Controller) editCurrentUser(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	var data struct {
		User struct {
			Username *string `json:"username" validate:"omitempty,max=128"`
			Email    *string `json:"email" validate:"omitempty,email,max=256"`
			Password *string `json:"password" validate:"omitempty,min=6,max=72"`
			Bio      *string `json:"bio"`
			Image    *string `json:"image" validate:"omitempty,max=1024"`
		} `json:"user"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	user, err := services.UpdateUser(v.db, user, services.UserChanges{
		Username: data.User.Username,
		Email:    data.User.Email,
		Password: data.User.Password,
		Bio:      data.User.Bio,
		Image:    data.User.Image,
	})
	if err != nil {
		return err
	}

	// The token stays valid, it only carries the user id
	token, _ := c.Locals("token").(string)

	return c.JSON(fiber.Map{
		"user": renderUser(user, token),
	})
}

func (v *Controller) deleteCurrentUser(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.User)

	if err := services.DeleteUser(v.db, user); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
