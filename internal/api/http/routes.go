package httpapi

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/export"
	"github.com/i474232898/weather-lookup/internal/log"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// pageData is the view model shared by every HTML page.
type pageData struct {
	Title     string
	Message   string
	Action    string
	Form      formValues
	Report    *weather.Report
	UnitLabel string
	Records   []weather.Record
}

// RegisterRoutes wires the HTML pages, exports and JSON API into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	h := &handlers{service: service}

	app.Get("/", h.index)
	app.Post("/", h.lookup)
	app.Get("/results", h.results)
	app.Get("/history/:id/edit", h.edit)
	app.Post("/history/:id", h.update)
	app.Post("/history/:id/delete", h.remove)
	app.Get("/export/:format", h.export)

	v1 := app.Group("/api/v1")
	v1.Get("/weather/current", h.apiCurrent)
	v1.Get("/weather/forecast", h.apiForecast)
	v1.Get("/history", h.apiHistory)
	v1.Get("/history/:id", h.apiRecord)
	v1.Delete("/history/:id", h.apiDelete)
}

type handlers struct {
	service *weather.Service
}

func (h *handlers) index(c *fiber.Ctx) error {
	return c.Render("index", pageData{
		Title:  "Weather lookup",
		Action: "/",
		Form:   formValues{Unit: string(weather.UnitMetric)},
	})
}

func (h *handlers) lookup(c *fiber.Ctx) error {
	form := readForm(c)
	page := pageData{Title: "Weather lookup", Action: "/", Form: form}

	q, err := form.bind()
	if err != nil {
		return renderError(c, "index", page, err)
	}

	report, err := h.service.Lookup(c.UserContext(), q)
	if err != nil {
		return renderError(c, "index", page, err)
	}

	page.Report = report
	page.UnitLabel = report.Unit.Label()
	return c.Render("index", page)
}

func (h *handlers) results(c *fiber.Ctx) error {
	records, err := h.service.History(c.UserContext())
	if err != nil {
		return renderError(c, "results", pageData{Title: "History"}, err)
	}
	return c.Render("results", pageData{Title: "History", Records: records})
}

func (h *handlers) edit(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return renderError(c, "results", pageData{Title: "History"}, err)
	}
	rec, err := h.service.Record(c.UserContext(), id)
	if err != nil {
		return renderError(c, "results", pageData{Title: "History"}, err)
	}
	return c.Render("edit", pageData{
		Title:  "Edit entry",
		Action: "/history/" + strconv.FormatInt(id, 10),
		Form: formValues{
			Location:  rec.Location,
			Unit:      string(weather.UnitMetric),
			StartDate: rec.StartDate.Format(weather.DateLayout),
			EndDate:   rec.EndDate.Format(weather.DateLayout),
		},
	})
}

func (h *handlers) update(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return renderError(c, "results", pageData{Title: "History"}, err)
	}

	form := readForm(c)
	page := pageData{Title: "Edit entry", Action: "/history/" + strconv.FormatInt(id, 10), Form: form}

	q, err := form.bind()
	if err != nil {
		return renderError(c, "edit", page, err)
	}

	report, err := h.service.Update(c.UserContext(), id, q)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return renderError(c, "results", pageData{Title: "History"}, err)
		}
		return renderError(c, "edit", page, err)
	}

	return c.Render("index", pageData{
		Title:     "Weather lookup",
		Message:   "Entry updated.",
		Action:    "/",
		Form:      form,
		Report:    report,
		UnitLabel: report.Unit.Label(),
	})
}

func (h *handlers) remove(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err == nil {
		err = h.service.Delete(c.UserContext(), id)
	}
	if err != nil {
		return renderError(c, "results", pageData{Title: "History"}, err)
	}
	return c.Redirect("/results", fiber.StatusSeeOther)
}

func (h *handlers) export(c *fiber.Ctx) error {
	format, ok := export.Lookup(c.Params("format"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown export format")
	}

	records, err := h.service.History(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load history")
	}

	var buf bytes.Buffer
	if err := format.Write(&buf, records); err != nil {
		log.Errorw("export failed", "format", format.Name, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to export history")
	}

	c.Attachment(format.Filename)
	c.Set(fiber.HeaderContentType, format.ContentType)
	return c.Send(buf.Bytes())
}

func (h *handlers) apiCurrent(c *fiber.Ctx) error {
	unit, ok := weather.ParseUnit(c.Query("unit"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, errBadUnit.Error())
	}
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		return fiber.NewError(fiber.StatusBadRequest, weather.ErrEmptyLocation.Error())
	}

	snap, err := h.service.CurrentWeather(c.UserContext(), location, unit)
	if err != nil {
		return apiError(err)
	}

	return c.JSON(fiber.Map{
		"location":   location,
		"unit":       unit,
		"unit_label": unit.Label(),
		"weather":    snap,
	})
}

func (h *handlers) apiForecast(c *fiber.Ctx) error {
	unit, ok := weather.ParseUnit(c.Query("unit"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, errBadUnit.Error())
	}
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		return fiber.NewError(fiber.StatusBadRequest, weather.ErrEmptyLocation.Error())
	}

	var start, end time.Time
	ranged := c.Query("start") != "" || c.Query("end") != ""
	if ranged {
		var err error
		if start, err = time.Parse(weather.DateLayout, c.Query("start")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, errBadDate.Error())
		}
		if end, err = time.Parse(weather.DateLayout, c.Query("end")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, errBadDate.Error())
		}
		if start.After(end) {
			return fiber.NewError(fiber.StatusBadRequest, weather.ErrInvalidDateRange.Error())
		}
	}

	at, err := h.service.Resolve(c.UserContext(), location)
	if err != nil {
		return apiError(err)
	}

	forecast := h.service.Forecast(c.UserContext(), at, unit)
	week, err := weather.TopByWeekday(forecast)
	if err != nil {
		return apiError(err)
	}

	body := fiber.Map{
		"location":    location,
		"coordinates": at,
		"unit":        unit,
		"unit_label":  unit.Label(),
		"forecast":    forecast,
		"week":        week,
	}
	if ranged {
		inRange, err := weather.FilterRange(forecast, start, end)
		if err != nil {
			return apiError(err)
		}
		body["in_range"] = inRange
	}
	return c.JSON(body)
}

func (h *handlers) apiHistory(c *fiber.Ctx) error {
	records, err := h.service.History(c.UserContext())
	if err != nil {
		return apiError(err)
	}
	return c.JSON(records)
}

func (h *handlers) apiRecord(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return apiError(err)
	}
	rec, err := h.service.Record(c.UserContext(), id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(rec)
}

func (h *handlers) apiDelete(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return apiError(err)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// recordID parses the :id route parameter. Ids that cannot exist are
// reported as missing records.
func recordID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}

// classify maps a service error onto an HTTP status and a user-facing message.
func classify(err error) (int, string) {
	switch {
	case isFormError(err):
		return fiber.StatusBadRequest, capitalize(err.Error()) + "."
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.StatusNotFound, "Could not find location."
	case errors.Is(err, weather.ErrNoWeatherData):
		return fiber.StatusBadGateway, "Location found, but weather data is unavailable right now."
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound, "No such record."
	default:
		return fiber.StatusInternalServerError, "Something went wrong."
	}
}

func renderError(c *fiber.Ctx, view string, page pageData, err error) error {
	status, msg := classify(err)
	if status == fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
	}
	page.Message = msg
	return c.Status(status).Render(view, page)
}

func apiError(err error) error {
	status, msg := classify(err)
	if status == fiber.StatusInternalServerError {
		log.Errorw("api request failed", "error", err)
	}
	return fiber.NewError(status, msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
