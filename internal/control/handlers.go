// Package control is the HTTP command surface for flight session
// operations: marking takeoff, archiving, and catch-up reads.
package control

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/pipeline"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/telemetry"
)

func RegisterRoutes(r fiber.Router, d *pipeline.Driver) {
	r.Post("/clear", func(c *fiber.Ctx) error {
		res, err := d.ClearAndMarkTakeoff(c.Context())
		if err != nil {
			return c.JSON(fiber.Map{"status": "error", "message": err.Error()})
		}
		return c.JSON(fiber.Map{
			"status":         "success",
			"backup_file":    res.BackupFile,
			"takeoff_offset": res.TakeoffOffset,
			"takeoff_time":   res.TakeoffTime,
		})
	})

	r.Post("/save", func(c *fiber.Ctx) error {
		res, err := d.Save(c.Context())
		if err != nil {
			return c.JSON(fiber.Map{"status": "error", "message": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "success", "filename": res.Filename})
	})

	r.Post("/save-and-clear", func(c *fiber.Ctx) error {
		res, err := d.SaveAndClear(c.Context())
		if err != nil {
			return c.JSON(fiber.Map{"status": "error", "message": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "success", "filename": res.Filename})
	})

	r.Get("/current", func(c *fiber.Ctx) error {
		points, err := d.CurrentData(c.Context())
		if err != nil {
			return c.JSON(fiber.Map{"status": "error", "message": err.Error()})
		}
		if points == nil {
			points = []telemetry.Point{}
		}
		return c.JSON(fiber.Map{"status": "success", "data": points})
	})

	r.Get("/session", func(c *fiber.Ctx) error {
		info, err := d.SessionInfo(c.Context())
		if err != nil {
			return c.JSON(fiber.Map{"status": "error", "message": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "success", "session": info})
	})

	// Manual injection for bench testing: validates the line before it
	// enters the queue so a typo reports immediately instead of being
	// dropped by the pipeline.
	r.Post("/inject", func(c *fiber.Ctx) error {
		var body struct {
			CSVData string `json:"csv_data"`
		}
		_ = c.BodyParser(&body)
		if body.CSVData == "" {
			body.CSVData = string(c.Body())
		}
		if _, err := telemetry.Decode(body.CSVData); err != nil {
			return c.JSON(fiber.Map{"status": "error", "message": err.Error()})
		}
		d.Enqueue(body.CSVData)
		return c.JSON(fiber.Map{"status": "success", "message": "telemetry queued"})
	})
}
