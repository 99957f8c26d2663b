// path: controllers/moraqib.go
package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mirqab/models"
)

// HandleMoraqibQuery answers a natural-language question about stored
// detection reports through the Moraqib assistant.
// POST /api/moraqib_query (form field: query)
func (h *Handlers) HandleMoraqibQuery(c *fiber.Ctx) error {
	question := strings.TrimSpace(c.FormValue("query"))
	if question == "" {
		// JSON fallback for clients that do not speak form encoding
		var body struct {
			Query string `json:"query"`
		}
		if err := c.BodyParser(&body); err == nil {
			question = strings.TrimSpace(body.Query)
		}
	}
	if question == "" {
		return badReq(c, "missing query")
	}
	if len(question) > 2000 {
		return badReq(c, "query too long")
	}

	if h.llm == nil || !h.llm.Available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.QueryResponse{
			OK:       false,
			Question: question,
			Error:    "assistant is not configured",
		})
	}

	res, err := h.assist.Answer(c.Context(), question)
	if err != nil {
		h.log.WithError(err).Warn("moraqib query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(models.QueryResponse{
			OK:       false,
			Question: question,
			Error:    "failed to answer question",
		})
	}

	return c.JSON(models.QueryResponse{
		OK:           true,
		Question:     question,
		Answer:       res.Answer,
		ReportsCount: res.ReportsCount,
		ReportsUsed:  res.ReportsUsed,
	})
}
