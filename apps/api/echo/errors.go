package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/auth"
)

const retryLater = "something went wrong, please retry later"

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := errorResponse(err, translator)

		if code == http.StatusInternalServerError {
			var person core.Person
			if claims, cErr := contextClaims(ctx); cErr == nil {
				person.ID = claims.Subject
				person.Username = claims.Name
			}
			logger.Error(retryLater, errors.WithMessage(err, ctx.Request().Method+" "+ctx.Path()), person)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}
		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = echo.Map{"error": err.Error()}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// errorResponse maps err to its status code and body.
func errorResponse(err error, translator ut.Translator) (int, interface{}) {
	var (
		httpErr *echo.HTTPError
		vErrs   validator.ValidationErrors
		bErr    *core.BusinessError
	)
	switch {
	case errors.As(err, &httpErr):
		if httpErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, echo.Map{"error": httpErr.Message}
		}
		if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = herr
		}
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, echo.Map{"error": msg}
		}
		return httpErr.Code, echo.Map{"error": httpErr.Message}

	case errors.As(err, &vErrs):
		fields := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			fields[vErr.Field()] = vErr.Translate(translator)
		}
		return http.StatusBadRequest, echo.Map{"error": "invalid data", "fields": fields}

	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, echo.Map{"error": err.Error()}
	}

	body := echo.Map{"error": err.Error()}
	if errors.As(err, &bErr) {
		body["code"] = bErr.Code
	}

	switch core.KindOf(err) {
	case core.KindValidation:
		var verr *core.ValidationError
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			fields := make(map[string]string, len(verr.Fields))
			for _, f := range verr.Fields {
				if prev, ok := fields[f.Field]; ok {
					fields[f.Field] = prev + "; " + f.Error
				} else {
					fields[f.Field] = f.Error
				}
			}
			body["fields"] = fields
		}
		return http.StatusBadRequest, body
	case core.KindConflict, core.KindTransition:
		return http.StatusConflict, body
	case core.KindNotFound:
		return http.StatusNotFound, body
	}
	return http.StatusInternalServerError, echo.Map{"error": retryLater}
}
