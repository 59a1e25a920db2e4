package api

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func MapControllers(app *fiber.App, baseURL string, db *gorm.DB, middlewares ...fiber.Handler) {
	v := &Controller{db: db}

	api := app.Group(baseURL, middlewares...)
	{
		api.Post("/users", v.registerUser)
		api.Post("/users/login", v.loginUser)
		api.Get("/user", v.getCurrentUser)
		api.Put("/user", v.editCurrentUser)
		api.Delete("/user", v.deleteCurrentUser)

		profiles := api.Group("/profiles")
		{
			profiles.Get("/:username", v.getProfile)
			profiles.Post("/:username/follow", v.followProfile)
			profiles.Delete("/:username/follow", v.unfollowProfile)
		}

		articles := api.Group("/articles")
		{
			articles.Get("/", v.listArticles)
			articles.Get("/feed", v.listFeedArticles)
			articles.Post("/", v.createArticle)
			articles.Get("/:slug", v.getArticle)
			articles.Put("/:slug", v.editArticle)
			articles.Delete("/:slug", v.deleteArticle)

			articles.Get("/:slug/comments", v.listComments)
			articles.Post("/:slug/comments", v.createComment)
			articles.Delete("/:slug/comments/:commentId", v.deleteComment)

			// Both spellings are served, clients use either
			for _, path := range []string{"/:slug/favorite", "/:slug/favourite"} {
				articles.Post(path, v.favouriteArticle)
				articles.Delete(path, v.unfavouriteArticle)
			}
		}

		api.Get("/tags", v.listTags)
	}
}
