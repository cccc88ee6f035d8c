package httpapi

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/chaunceygardiner/weewx-loopdata/internal/engine"
	"github.com/chaunceygardiner/weewx-loopdata/internal/loop"
	"github.com/chaunceygardiner/weewx-loopdata/internal/source"
)

var validate = validator.New()

// StationInfo is the station metadata served to clients.
type StationInfo struct {
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeFt  float64 `json:"altitude_ft"`
	LoopSeconds int     `json:"loop_seconds"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. ingest may be
// nil when packets come from a local source instead of HTTP.
func RegisterRoutes(app *fiber.App, eng *engine.Engine, station StationInfo, ingest source.Sink) {
	v1 := app.Group("/api/v1")

	v1.Get("/loop", func(c *fiber.Ctx) error {
		snap := eng.Snapshot()
		if len(snap) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no loop packet processed yet")
		}
		return c.JSON(snap)
	})

	v1.Get("/station", func(c *fiber.Ctx) error {
		return c.JSON(station)
	})

	v1.Post("/loop", func(c *fiber.Ctx) error {
		if ingest == nil {
			return fiber.NewError(fiber.StatusNotImplemented, "packet ingest is not enabled")
		}

		var pkt loop.Packet
		if err := json.Unmarshal(c.Body(), &pkt); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		req := ingestRequest{
			DateTime:   pkt.DateTime,
			UnitSystem: int(pkt.UnitSystem),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		pkt.TraceID = uuid.NewString()
		ingest(&pkt)

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"accepted": true,
			"trace_id": pkt.TraceID,
		})
	})
}

// ingestRequest holds the packet envelope fields checked before accept.
type ingestRequest struct {
	DateTime   int64 `validate:"required,gt=0"`
	UnitSystem int   `validate:"required,oneof=1 16 17"`
}
