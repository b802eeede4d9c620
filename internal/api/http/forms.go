package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = validator.New()

// formValues holds the raw submitted strings so pages can be re-filled.
type formValues struct {
	Location  string
	Unit      string
	StartDate string
	EndDate   string
}

// lookupForm is the validated shape of a lookup or edit submission.
type lookupForm struct {
	Location  string    `validate:"required,max=100"`
	Unit      string    `validate:"oneof=metric imperial"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtefield=StartDate"`
}

var (
	errBadDate  = errors.New("dates must use the YYYY-MM-DD format")
	errBadUnit  = weather.ErrInvalidUnit
	errTooLong  = errors.New("location must be at most 100 characters")
	errRequired = errors.New("location, start date and end date are required")
)

func readForm(c *fiber.Ctx) formValues {
	return formValues{
		Location:  strings.TrimSpace(c.FormValue("location")),
		Unit:      strings.TrimSpace(c.FormValue("unit")),
		StartDate: strings.TrimSpace(c.FormValue("start_date")),
		EndDate:   strings.TrimSpace(c.FormValue("end_date")),
	}
}

// bind parses and validates raw form values into a query.
func (f formValues) bind() (weather.Query, error) {
	unit := f.Unit
	if unit == "" {
		unit = string(weather.UnitMetric)
	}
	form := lookupForm{Location: f.Location, Unit: unit}

	var err error
	if form.StartDate, err = parseDate(f.StartDate); err != nil {
		return weather.Query{}, err
	}
	if form.EndDate, err = parseDate(f.EndDate); err != nil {
		return weather.Query{}, err
	}

	if err := validate.Struct(form); err != nil {
		return weather.Query{}, translate(err)
	}

	return weather.Query{
		Location: form.Location,
		Start:    form.StartDate,
		End:      form.EndDate,
		Unit:     weather.Unit(form.Unit),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(weather.DateLayout, s)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return t, nil
}

// translate maps validator failures onto user-facing errors.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch {
	case fe.Tag() == "gtefield":
		return weather.ErrInvalidDateRange
	case fe.Field() == "Unit":
		return errBadUnit
	case fe.Tag() == "max":
		return errTooLong
	default:
		return errRequired
	}
}

func isFormError(err error) bool {
	return weather.IsValidation(err) ||
		errors.Is(err, errBadDate) ||
		errors.Is(err, errBadUnit) ||
		errors.Is(err, errTooLong) ||
		errors.Is(err, errRequired)
}
