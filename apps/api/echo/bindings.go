package echoapi

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
)

const (
	orderingParam = "ordering"
	maxLimit      = 500
)

var (
	errInvalidLimit  = errors.New("must be a number between 1 and 500")
	errInvalidStatus = errors.New("unknown status")
	errInvalidKind   = errors.New("must be DOCTORAL or GENERAL")
)

// bindAndValidate binds the request body to data, then runs the struct validations of data.
func bindAndValidate(ctx echo.Context, validate *validator.Validate, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return err
	}
	return validate.Struct(data)
}

// parseOrdering reads "ordering=-updated_at,reference" into descending updated_at then ascending reference.
func parseOrdering(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}
	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
	return orderings
}

// bindFilter reads the search query parameters: status (repeatable), kind, program, reference,
// manager, ordering and limit.
func bindFilter(ctx echo.Context) (proposition.Filter, error) {
	var v core.Violations
	f := proposition.Filter{
		ProgramID:       ctx.QueryParam("program"),
		Kind:            catalog.ProgramKind(strings.ToUpper(ctx.QueryParam("kind"))),
		ManagerInCharge: ctx.QueryParam("manager"),
		Reference:       ctx.QueryParam("reference"),
		Ordering:        parseOrdering(ctx),
	}
	if f.Kind != "" && f.Kind != catalog.KindDoctoral && f.Kind != catalog.KindGeneral {
		v.Add("kind", errInvalidKind)
	}
	for _, s := range ctx.QueryParams()["status"] {
		status := proposition.Status(strings.ToUpper(s))
		if !status.Valid() {
			v.Add("status", errors.Wrap(errInvalidStatus, s))
			continue
		}
		f.Statuses = append(f.Statuses, status)
	}
	if l := ctx.QueryParam("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 || limit > maxLimit {
			v.Add("limit", errInvalidLimit)
		}
		f.Limit = limit
	}
	return f, v.Err(nil)
}

func bindTags(ctx echo.Context) []history.Tag {
	var tags []history.Tag
	for _, t := range ctx.QueryParams()["tag"] {
		tags = append(tags, history.Tag(t))
	}
	return tags
}
