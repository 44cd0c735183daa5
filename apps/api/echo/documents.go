package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/workflow"
)

type answersRequest struct {
	Answers map[string]document.Answer `json:"answers" validate:"required,min=1"`
}

func (api *propositionAPI) documents(ctx echo.Context) error {
	if _, _, err := api.access(ctx); err != nil {
		return err
	}
	reqs, err := api.svc.Documents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

// requestDocuments asks on behalf of the body of the manager when the request names none.
func (api *propositionAPI) requestDocuments(ctx echo.Context) error {
	claims, p, err := api.access(ctx)
	if err != nil {
		return err
	}
	var data workflow.DocumentRequest
	if err = ctx.Bind(&data); err != nil {
		return err
	}
	if data.Body == "" {
		data.Body, _ = claims.Body()
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	requested, err := api.svc.RequestDocuments(ctx.Request().Context(), p.ID, data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, requested)
}

func (api *propositionAPI) cancelDocumentRequest(ctx echo.Context) error {
	by, err := api.author(ctx)
	if err != nil {
		return err
	}
	cancelled, err := api.svc.CancelDocumentRequest(ctx.Request().Context(), ctx.Param("id"), ctx.Param("slot"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cancelled)
}

func (api *propositionAPI) completeDocuments(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	var data answersRequest
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	completed, err := api.svc.CompleteDocuments(ctx.Request().Context(), ctx.Param("id"), data.Answers, by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, completed)
}

func (api *propositionAPI) recalculateDocuments(ctx echo.Context) error {
	by, err := api.author(ctx)
	if err != nil {
		return err
	}
	diff, err := api.svc.RecalculateDocuments(ctx.Request().Context(), ctx.Param("id"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, diff)
}

func (api *propositionAPI) overdueDocuments(ctx echo.Context) error {
	reqs, err := api.svc.OverdueDocuments(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}
