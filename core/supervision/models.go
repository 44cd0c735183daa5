package supervision

import (
	"time"

	"github.com/trezcool/admission/core"
)

type (
	Role           string
	SignatureState string
	Verdict        string
)

const (
	RolePromoter        Role = "PROMOTER"
	RoleCommitteeMember Role = "COMMITTEE_MEMBER"

	StateNotInvited SignatureState = "NOT_INVITED"
	StateInvited    SignatureState = "INVITED"
	StateApproved   SignatureState = "APPROVED"
	StateDeclined   SignatureState = "DECLINED"

	VerdictApproved Verdict = "APPROVED"
	VerdictDeclined Verdict = "DECLINED"
)

func (r Role) Valid() bool {
	return r == RolePromoter || r == RoleCommitteeMember
}

type (
	// ExternalIdentity describes a signatory who has no matricule in the institution.
	ExternalIdentity struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
		Institution string `json:"institution"`
		City        string `json:"city,omitempty"`
		Country     string `json:"country"`
		Language    string `json:"language,omitempty"`
		IsDoctor    bool   `json:"is_doctor"`
	}

	// Actor is a signatory: a promoter or a committee member,
	// identified either by a matricule or by an external identity.
	Actor struct {
		ID        string            `json:"id"`
		Role      Role              `json:"role"`
		Matricule string            `json:"matricule,omitempty"`
		External  *ExternalIdentity `json:"external,omitempty"`
	}

	Signature struct {
		Actor           Actor          `json:"actor"`
		State           SignatureState `json:"state"`
		InternalComment string         `json:"internal_comment,omitempty"`
		ExternalComment string         `json:"external_comment,omitempty"`
		RejectionReason string         `json:"rejection_reason,omitempty"`
		PDF             []string       `json:"pdf,omitempty"`
		UpdatedAt       time.Time      `json:"updated_at"`
	}

	// Decision is what a signatory answers to a signature request.
	Decision struct {
		Verdict         Verdict
		InternalComment string
		ExternalComment string
		RejectionReason string
		PDF             []string
	}

	// Cotutelle is a joint supervision arrangement with a partner institution.
	Cotutelle struct {
		Motivation              string   `json:"motivation"`
		InstitutionFWB          *bool    `json:"institution_fwb"`
		Institution             string   `json:"institution,omitempty"`
		OtherInstitutionName    string   `json:"other_institution_name,omitempty"`
		OtherInstitutionAddress string   `json:"other_institution_address,omitempty"`
		OpeningRequest          []string `json:"opening_request,omitempty"`
		Convention              []string `json:"convention,omitempty"`
		OtherDocuments          []string `json:"other_documents,omitempty"`
	}

	Group struct {
		ID                  string      `json:"id"`
		PropositionID       string      `json:"proposition_id"`
		Signatures          []Signature `json:"signatures"`
		ReferencePromoterID string      `json:"reference_promoter_id,omitempty"`
		Cotutelle           *Cotutelle  `json:"cotutelle,omitempty"`
		Locked              bool        `json:"locked"`
	}
)

func (a Actor) IsExternal() bool {
	return a.Matricule == "" && a.External != nil
}

// Key identifies the person behind the actor, whatever their role.
func (a Actor) Key() string {
	if a.Matricule != "" {
		return "m:" + core.CleanString(a.Matricule)
	}
	if a.External != nil {
		return "e:" + core.CleanString(a.External.Email, true /* lower */)
	}
	return ""
}

func (a Actor) DisplayName() string {
	if a.External != nil {
		return a.External.FirstName + " " + a.External.LastName
	}
	return a.Matricule
}

func (s Signature) Decided() bool {
	return s.State == StateApproved || s.State == StateDeclined
}

func (g *Group) find(actorID string) (int, bool) {
	for i, s := range g.Signatures {
		if s.Actor.ID == actorID {
			return i, true
		}
	}
	return -1, false
}

// Get returns the signature of actorID.
func (g *Group) Get(actorID string) (Signature, error) {
	i, ok := g.find(actorID)
	if !ok {
		return Signature{}, ErrMemberNotFound
	}
	return g.Signatures[i], nil
}

// ByRole returns the signatures of the members having role.
func (g *Group) ByRole(role Role) []Signature {
	sigs := make([]Signature, 0, len(g.Signatures))
	for _, s := range g.Signatures {
		if s.Actor.Role == role {
			sigs = append(sigs, s)
		}
	}
	return sigs
}

// Outstanding counts the signatures still waiting for a decision.
func (g *Group) Outstanding() int {
	var n int
	for _, s := range g.Signatures {
		if s.State == StateInvited {
			n++
		}
	}
	return n
}

// IsFullySigned reports whether every member of a non-empty group approved.
func (g *Group) IsFullySigned() bool {
	if len(g.Signatures) == 0 {
		return false
	}
	for _, s := range g.Signatures {
		if s.State != StateApproved {
			return false
		}
	}
	return true
}

// IsReferencePromoter reports whether actorID is the reference promoter.
func (g *Group) IsReferencePromoter(actorID string) bool {
	return g.ReferencePromoterID != "" && g.ReferencePromoterID == actorID
}
