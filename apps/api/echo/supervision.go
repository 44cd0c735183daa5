package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/admission/core/auth"
	"github.com/trezcool/admission/core/supervision"
)

type (
	memberRequest struct {
		Role      supervision.Role              `json:"role" validate:"required,oneof=PROMOTER COMMITTEE_MEMBER"`
		Matricule string                        `json:"matricule" validate:"omitempty,matricule"`
		External  *supervision.ExternalIdentity `json:"external"`
	}

	referencePromoterRequest struct {
		ActorID string `json:"actor_id" validate:"required"`
	}

	cotutelleRequest struct {
		Cotutelle *supervision.Cotutelle `json:"cotutelle"` // null: no cotutelle
	}

	decisionRequest struct {
		Verdict         supervision.Verdict `json:"verdict" validate:"required,oneof=APPROVED DECLINED"`
		InternalComment string              `json:"internal_comment"`
		ExternalComment string              `json:"external_comment"`
		RejectionReason string              `json:"rejection_reason"`
		Institute       string              `json:"institute"`
	}

	pdfRequest struct {
		PDF []string `json:"pdf" validate:"required,min=1"`
	}
)

// signatory returns the signature of the caller in the group of propositionID.
// Internal members are identified by their matricule, external ones by their actor id.
func (api *propositionAPI) signatory(ctx echo.Context, claims *auth.Claims, propositionID string) (supervision.Signature, bool) {
	g, err := api.svc.Group(ctx.Request().Context(), propositionID)
	if err != nil {
		return supervision.Signature{}, false
	}
	for _, sig := range g.Signatures {
		if sig.Actor.ID == claims.Subject || (sig.Actor.Matricule != "" && sig.Actor.Matricule == claims.Subject) {
			return sig, true
		}
	}
	return supervision.Signature{}, false
}

func (api *propositionAPI) group(ctx echo.Context) error {
	if _, _, err := api.access(ctx); err != nil {
		return err
	}
	g, err := api.svc.Group(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *propositionAPI) addMember(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	var data memberRequest
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	actor := supervision.Actor{Role: data.Role, Matricule: data.Matricule, External: data.External}
	sig, err := api.svc.AddMember(ctx.Request().Context(), ctx.Param("id"), actor, by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sig)
}

// removeMember is open to the candidate while drafting and to managers as an administrative removal.
func (api *propositionAPI) removeMember(ctx echo.Context) error {
	claims, p, err := api.access(ctx)
	if err != nil {
		return err
	}
	if !claims.IsManager() && p.ApplicantID != claims.Subject {
		return errForbidden
	}
	if err = api.svc.RemoveMember(ctx.Request().Context(), p.ID, ctx.Param("actor"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propositionAPI) designateReferencePromoter(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	var data referencePromoterRequest
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	if err = api.svc.DesignateReferencePromoter(ctx.Request().Context(), ctx.Param("id"), data.ActorID, by); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propositionAPI) defineCotutelle(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	var data cotutelleRequest
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	if err = api.svc.DefineCotutelle(ctx.Request().Context(), ctx.Param("id"), data.Cotutelle, by); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propositionAPI) requestSignatures(ctx echo.Context) error {
	by, err := api.owner(ctx)
	if err != nil {
		return err
	}
	invited, err := api.svc.RequestSignatures(ctx.Request().Context(), ctx.Param("id"), by)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, invited)
}

// recordDecision lets a member answer for themselves only.
func (api *propositionAPI) recordDecision(ctx echo.Context) error {
	claims, p, err := api.access(ctx)
	if err != nil {
		return err
	}
	if sig, ok := api.signatory(ctx, claims, p.ID); !ok || sig.Actor.ID != ctx.Param("actor") {
		return errForbidden
	}
	var data decisionRequest
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	d := supervision.Decision{
		Verdict:         data.Verdict,
		InternalComment: data.InternalComment,
		ExternalComment: data.ExternalComment,
		RejectionReason: data.RejectionReason,
	}
	sig, err := api.svc.RecordDecision(ctx.Request().Context(), p.ID, ctx.Param("actor"), d, data.Institute, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sig)
}

func (api *propositionAPI) recordDecisionViaPDF(ctx echo.Context) error {
	claims, p, err := api.access(ctx)
	if err != nil {
		return err
	}
	if !claims.IsManager() && p.ApplicantID != claims.Subject {
		return errForbidden
	}
	var data pdfRequest
	if err = bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	sig, err := api.svc.RecordDecisionViaPDF(ctx.Request().Context(), p.ID, ctx.Param("actor"), data.PDF, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sig)
}
