package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/admission/core/auth"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/workflow"
)

type propositionAPI struct {
	svc      *workflow.Service
	validate *validator.Validate
}

type (
	specificAnswersRequest struct {
		Answers map[string]string `json:"answers"`
	}

	approvalRequest struct {
		Details *proposition.ApprovalDetails `json:"details"`
	}
)

func (api *propositionAPI) register(g *echo.Group, jwt echo.MiddlewareFunc) {
	var (
		candidate  = rolesMiddleware(auth.RoleCandidate)
		manager    = rolesMiddleware(auth.RoleManagerSIC, auth.RoleManagerFAC)
		sic        = rolesMiddleware(auth.RoleManagerSIC)
		fac        = rolesMiddleware(auth.RoleManagerFAC)
		signatory  = rolesMiddleware(auth.RolePromoter, auth.RoleCommittee)
		uploader   = rolesMiddleware(auth.RoleCandidate, auth.RoleManagerSIC, auth.RoleManagerFAC)
		searchable = rolesMiddleware(auth.RoleCandidate, auth.RoleManagerSIC, auth.RoleManagerFAC)
	)

	pg := g.Group("/propositions", jwt)
	pg.POST("", api.initiate, candidate)
	pg.GET("", api.search, searchable)

	// detail endpoints
	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/history", api.history)

	// candidate
	dg.PUT("/project", api.completeProject, candidate)
	dg.PUT("/financing", api.completeFinancing, candidate)
	dg.PUT("/accounting", api.completeAccounting, candidate)
	dg.PUT("/curriculum", api.completeCurriculum, candidate)
	dg.PUT("/specific-questions", api.answerSpecificQuestions, candidate)
	dg.POST("/submit", api.submit, candidate)
	dg.POST("/withdraw", api.withdraw, candidate)

	// supervision
	sg := dg.Group("/supervision")
	sg.GET("", api.group)
	sg.POST("/members", api.addMember, candidate)
	sg.DELETE("/members/:actor", api.removeMember, uploader)
	sg.PUT("/reference-promoter", api.designateReferencePromoter, candidate)
	sg.PUT("/cotutelle", api.defineCotutelle, candidate)
	sg.POST("/signatures", api.requestSignatures, candidate)
	sg.POST("/members/:actor/decision", api.recordDecision, signatory)
	sg.POST("/members/:actor/pdf", api.recordDecisionViaPDF, uploader)

	// review
	dg.POST("/take-in-charge", api.takeInCharge, manager)
	dg.POST("/route-to-faculty", api.routeToFaculty, sic)
	dg.POST("/route-to-sic", api.routeToSIC, manager)
	dg.POST("/approve-faculty", api.approveByFaculty, fac)
	dg.POST("/approve", api.approveFinal, sic)
	dg.POST("/refuse", api.refuseFinal, sic)
	dg.POST("/close", api.close, sic)

	// documents
	dg.GET("/documents", api.documents)
	dg.POST("/documents/requests", api.requestDocuments, manager)
	dg.DELETE("/documents/requests/:slot", api.cancelDocumentRequest, manager)
	dg.POST("/documents/answers", api.completeDocuments, candidate)
	dg.POST("/documents/recalculate", api.recalculateDocuments, manager)

	g.GET("/documents/overdue", api.overdueDocuments, jwt, manager)
}

// access loads the proposition `:id` and checks the caller may see it: managers see every
// proposition, candidates their own and signatories those whose group they belong to.
func (api *propositionAPI) access(ctx echo.Context) (*auth.Claims, *proposition.Proposition, error) {
	claims, err := contextClaims(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return nil, nil, err
	}
	switch {
	case claims.IsManager():
		return claims, p, nil
	case claims.HasRole(auth.RoleCandidate) && p.ApplicantID == claims.Subject:
		return claims, p, nil
	case claims.HasAnyRole(auth.RolePromoter, auth.RoleCommittee) && p.IsDoctoral():
		if _, ok := api.signatory(ctx, claims, p.ID); ok {
			return claims, p, nil
		}
	}
	return nil, nil, errForbidden
}

// owner checks the caller is the candidate of the proposition `:id`, and returns its subject.
func (api *propositionAPI) owner(ctx echo.Context) (string, error) {
	claims, p, err := api.access(ctx)
	if err != nil {
		return "", err
	}
	if p.ApplicantID != claims.Subject {
		return "", errForbidden
	}
	return claims.Subject, nil
}

// author checks the caller may see the proposition `:id`, and returns their subject.
func (api *propositionAPI) author(ctx echo.Context) (string, error) {
	claims, _, err := api.access(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Handlers

func (api *propositionAPI) initiate(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	var data proposition.NewProposition
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	data.ApplicantID = claims.Subject

	p, err := api.svc.Initiate(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *propositionAPI) search(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	f, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	if !claims.IsManager() {
		f.ApplicantID = claims.Subject
	}

	props, err := api.svc.Search(ctx.Request().Context(), f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, props)
}

func (api *propositionAPI) retrieve(ctx echo.Context) error {
	_, p, err := api.access(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *propositionAPI) history(ctx echo.Context) error {
	if _, _, err := api.access(ctx); err != nil {
		return err
	}
	entries, err := api.svc.History(ctx.Request().Context(), ctx.Param("id"), bindTags(ctx)...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

// update binds the body to data, then runs op as the candidate owning the proposition.
func (api *propositionAPI) update(ctx echo.Context, data interface{}, op func(id, by string) (*proposition.Proposition, error)) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	if err = bindAndValidate(ctx, api.validate, data); err != nil {
		return err
	}
	p, err := op(ctx.Param("id"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *propositionAPI) completeProject(ctx echo.Context) error {
	var data proposition.Project
	return api.update(ctx, &data, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.CompleteProject(ctx.Request().Context(), id, data, by)
	})
}

func (api *propositionAPI) completeFinancing(ctx echo.Context) error {
	var data proposition.Financing
	return api.update(ctx, &data, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.CompleteFinancing(ctx.Request().Context(), id, data, by)
	})
}

func (api *propositionAPI) completeAccounting(ctx echo.Context) error {
	var data proposition.Accounting
	return api.update(ctx, &data, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.CompleteAccounting(ctx.Request().Context(), id, data, by)
	})
}

func (api *propositionAPI) completeCurriculum(ctx echo.Context) error {
	var data proposition.Curriculum
	return api.update(ctx, &data, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.CompleteCurriculum(ctx.Request().Context(), id, data, by)
	})
}

func (api *propositionAPI) answerSpecificQuestions(ctx echo.Context) error {
	var data specificAnswersRequest
	return api.update(ctx, &data, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.AnswerSpecificQuestions(ctx.Request().Context(), id, data.Answers, by)
	})
}

func (api *propositionAPI) submit(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *propositionAPI) withdraw(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Withdraw(ctx.Request().Context(), ctx.Param("id"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// transition runs op as the manager calling.
func (api *propositionAPI) transition(ctx echo.Context, op func(id, by string) (*proposition.Proposition, error)) error {
	by, err := api.author(ctx)
	if err != nil {
		return err
	}
	p, err := op(ctx.Param("id"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *propositionAPI) takeInCharge(ctx echo.Context) error {
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.TakeInCharge(ctx.Request().Context(), id, by)
	})
}

func (api *propositionAPI) routeToFaculty(ctx echo.Context) error {
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.RouteToFaculty(ctx.Request().Context(), id, by)
	})
}

func (api *propositionAPI) routeToSIC(ctx echo.Context) error {
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.RouteToSIC(ctx.Request().Context(), id, by)
	})
}

func (api *propositionAPI) approveByFaculty(ctx echo.Context) error {
	var data proposition.ApprovalDetails
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.ApproveByFaculty(ctx.Request().Context(), id, data, by)
	})
}

// approveFinal takes the faculty approval details when the body carries none.
func (api *propositionAPI) approveFinal(ctx echo.Context) error {
	var data approvalRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.ApproveFinal(ctx.Request().Context(), id, data.Details, by)
	})
}

func (api *propositionAPI) refuseFinal(ctx echo.Context) error {
	var data proposition.RefusalReasons
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.RefuseFinal(ctx.Request().Context(), id, data, by)
	})
}

func (api *propositionAPI) close(ctx echo.Context) error {
	return api.transition(ctx, func(id, by string) (*proposition.Proposition, error) {
		return api.svc.Close(ctx.Request().Context(), id, by)
	})
}
