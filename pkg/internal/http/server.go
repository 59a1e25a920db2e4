package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/api"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/http/exts"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type App struct {
	app *fiber.App
}

// NewServer builds the application, the middlewares are installed in the order
// the later ones rely on.
func NewServer(db *gorm.DB) *App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ServerHeader:          "Conduit",
		AppName:               "Conduit",
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		BodyLimit:             8 * 1024 * 1024,
		EnablePrintRoutes:     viper.GetBool("debug.print_routes"),
		ErrorHandler:          errorHandler,
	})

	app.Use(newRecoverMiddleware())
	app.Use(newCorsMiddleware(viper.GetString("cors.allow_origins")))
	app.Use(exts.JSONBodyGuard)
	app.Use(logger.New(logger.Config{
		Format: "${status} | ${latency} | ${method} ${path}\n",
		Output: log.Logger,
	}))

	// The health check stays out of the token parsing, it never touches the store
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "API is running"})
	})
	api.MapControllers(app, "/api", db, exts.ParseUserMiddleware(db))

	app.Use(notFoundHandler)

	return &App{app}
}

// newRecoverMiddleware keeps the stack of the panicking goroutine for the error stage.
func newRecoverMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			c.Locals(stackLocalKey, string(debug.Stack()))
		},
	})
}

// newCorsMiddleware reflects any origin when none is configured. Credentials
// cannot be combined with a wildcard, so the origin is echoed back instead.
func newCorsMiddleware(origins string) fiber.Handler {
	cfg := cors.Config{
		AllowCredentials: true,
		AllowOrigins:     origins,
		AllowMethods: fmt.Sprintf(
			"%s,%s,%s,%s,%s,%s",
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodHead,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodPatch,
		),
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = "http://localhost:3000"
		cfg.AllowOriginsFunc = func(origin string) bool { return true }
	}
	return cors.New(cfg)
}

func (v *App) Listen() error {
	bind := fmt.Sprintf("%s:%d", viper.GetString("host"), viper.GetInt("port"))
	log.Info().Str("bind", bind).Msg("Server is listening...")
	return v.app.Listen(bind)
}

func (v *App) Shutdown() error {
	return v.app.Shutdown()
}

// Test dispatches a request through the whole middleware chain without a listener.
func (v *App) Test(req *http.Request) (*http.Response, error) {
	return v.app.Test(req, -1)
}
