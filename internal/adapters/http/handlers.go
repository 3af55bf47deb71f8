package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/lliebig/opencelldroid/internal/adapters/device"
	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/usecases"
	"github.com/lliebig/opencelldroid/internal/pkg/geospatial"
)

// accepted is the body of a 202 response.
type accepted struct {
	RequestID string         `json:"request_id"`
	Channel   domain.Channel `json:"channel"`
}

func acceptedHandle(c *fiber.Ctx, h *usecases.Handle) error {
	return c.Status(fiber.StatusAccepted).JSON(accepted{RequestID: h.ID(), Channel: h.Channel()})
}

// SubmitCellHandler submits the current cell at the posted fix, or at the
// last acquired fix when the body is empty.
func SubmitCellHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fix domain.LocationFix
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &fix); err != nil {
				return errBadRequest(c, "invalid fix: "+err.Error())
			}
		} else {
			last, ok := deps.Hub.LastFix()
			if !ok {
				return errConflict(c, "no_fix", "no location fix acquired yet")
			}
			fix = last
		}

		h, err := deps.Reporter.Report(c.UserContext(), fix)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("submit refused", "error", err)
			return errFromDomain(c, err)
		}
		return acceptedHandle(c, h)
	}
}

// QueryAreaHandler looks up cells inside an explicit bounding box.
func QueryAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		box := domain.BoundingBox{
			LonMin: c.QueryFloat("lonmin", 0),
			LatMin: c.QueryFloat("latmin", 0),
			LonMax: c.QueryFloat("lonmax", 0),
			LatMax: c.QueryFloat("latmax", 0),
		}
		if msg := validateBox(box); msg != "" {
			return errBadRequest(c, msg)
		}

		h, err := deps.Gateway.QueryArea(c.UserContext(), domain.AreaQuery{
			Box:   box,
			Limit: c.QueryInt("limit", 0),
			MCC:   c.QueryInt("mcc", 0),
			MNC:   c.QueryInt("mnc", 0),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return acceptedHandle(c, h)
	}
}

// NearbyCellsHandler looks up cells within a radius of a point.
func NearbyCellsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 1000)

		if lat == 0 && lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat/lon out of range")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}

		box := geospatial.AroundPoint(lat, lon, radius)
		if msg := validateBox(box); msg != "" {
			return errBadRequest(c, msg)
		}

		h, err := deps.Gateway.QueryArea(c.UserContext(), domain.AreaQuery{
			Box:   box,
			Limit: c.QueryInt("limit", usecases.DefaultViewportLimit),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return acceptedHandle(c, h)
	}
}

// ViewportHandler reports a map viewport change. 204 means the change
// needed no query.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var box domain.BoundingBox
		if err := c.BodyParser(&box); err != nil {
			return errBadRequest(c, "invalid viewport: "+err.Error())
		}
		if !box.IsZero() {
			if msg := validateBox(box); msg != "" {
				return errBadRequest(c, msg)
			}
		}

		h, err := deps.Viewport.Update(c.UserContext(), box)
		if err != nil {
			return errFromDomain(c, err)
		}
		if h == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return acceptedHandle(c, h)
	}
}

// AcquireLocationHandler starts a GPS acquisition. The fix or timeout is
// pushed over the websocket.
func AcquireLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.GPS.Acquire(deps.Hub); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": deps.GPS.State().String()})
	}
}

// CancelLocationHandler abandons the outstanding acquisition.
func CancelLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"cancelled": deps.GPS.Cancel()})
	}
}

// PushFixHandler feeds a fix into the location provider.
func PushFixHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Feed == nil {
			return errUnavailable(c, "not_configured", "location feed not configured")
		}
		var fix domain.LocationFix
		if err := c.BodyParser(&fix); err != nil {
			return errBadRequest(c, "invalid fix: "+err.Error())
		}
		if fix.Lat < -90 || fix.Lat > 90 || fix.Lon < -180 || fix.Lon > 180 {
			return errBadRequest(c, "lat/lon out of range")
		}
		deps.Feed.Push(fix)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UpdateRadioHandler replaces the serving-cell reading.
func UpdateRadioHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Radio == nil {
			return errUnavailable(c, "not_configured", "radio reader not configured")
		}
		var rd device.RadioReading
		if err := c.BodyParser(&rd); err != nil {
			return errBadRequest(c, "invalid reading: "+err.Error())
		}
		deps.Radio.Update(rd)
		cell, err := deps.Radio.CurrentCell(c.UserContext())
		if err != nil {
			return c.JSON(fiber.Map{"cell": nil, "error": err.Error()})
		}
		return c.JSON(fiber.Map{"cell": cell})
	}
}

// CancelAllHandler cancels every outstanding sync request.
func CancelAllHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Gateway.CancelAll()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListOutcomesHandler returns journaled outcomes, newest first.
func ListOutcomesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Outcomes == nil {
			return errUnavailable(c, "not_configured", "outcome journal not configured")
		}

		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 200 {
			limit = 20
		}
		ch := domain.Channel(c.Query("channel"))
		if ch != "" && ch != domain.ChannelSubmit && ch != domain.ChannelQueryArea {
			return errBadRequest(c, "unknown channel: "+string(ch))
		}

		outcomes, err := deps.Outcomes.Recent(c.UserContext(), ch, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if outcomes == nil {
			outcomes = []domain.SyncOutcome{}
		}
		return c.JSON(outcomes)
	}
}

func validateBox(b domain.BoundingBox) string {
	switch {
	case b.LonMin < -180 || b.LonMax > 180 || b.LatMin < -90 || b.LatMax > 90:
		return "bounding box out of range"
	case b.LonMin > b.LonMax || b.LatMin > b.LatMax:
		return "bounding box min must not exceed max"
	case b.IsZero():
		return "bounding box is required"
	}
	return ""
}
