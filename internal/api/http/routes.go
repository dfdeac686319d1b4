package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fairskies/destination-search/internal/search"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
//
// The search endpoint always answers 200 with the {results, error}
// envelope; only malformed JSON is rejected at the transport level.
func RegisterRoutes(app *fiber.App, service *search.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/destinations/search", func(c *fiber.Ctx) error {
		var params search.Params
		if err := c.BodyParser(&params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "request body must be valid JSON")
		}

		return c.JSON(service.Search(c.UserContext(), params))
	})
}
