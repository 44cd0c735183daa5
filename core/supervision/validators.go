package supervision

import (
	"net/mail"

	"github.com/trezcool/admission/core"
)

func validateActor(a Actor) error {
	if !a.Role.Valid() {
		return ErrInvalidRole
	}
	hasMatricule := core.CleanString(a.Matricule) != ""
	if hasMatricule == (a.External != nil) {
		return ErrActorIdentityRequired
	}
	if a.External != nil {
		return a.External.Validate()
	}
	return nil
}

// Validate checks that the identity is complete enough to address the person.
func (e ExternalIdentity) Validate() error {
	var v core.Violations
	required := []struct {
		field string
		value string
	}{
		{"first_name", e.FirstName},
		{"last_name", e.LastName},
		{"email", e.Email},
		{"institution", e.Institution},
		{"country", e.Country},
	}
	for _, r := range required {
		if core.CleanString(r.value) == "" {
			v.Add(r.field, ErrInvalidExternalActor)
		}
	}
	if email := core.CleanString(e.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			v.Add("email", ErrInvalidExternalActor)
		}
	}
	return v.Err(ErrInvalidExternalActor)
}

func (c Cotutelle) Validate() error {
	var v core.Violations
	if core.CleanString(c.Motivation) == "" || c.InstitutionFWB == nil {
		v.Add("cotutelle", ErrCotutelleIncomplete)
	}
	hasListed := core.CleanString(c.Institution) != ""
	hasOther := core.CleanString(c.OtherInstitutionName) != "" || core.CleanString(c.OtherInstitutionAddress) != ""
	switch {
	case hasListed && hasOther:
		v.Add("institution", ErrCotutelleInstitution)
	case !hasListed && !hasOther:
		v.Add("institution", ErrCotutelleIncomplete)
	case hasOther && (core.CleanString(c.OtherInstitutionName) == "" || core.CleanString(c.OtherInstitutionAddress) == ""):
		v.Add("other_institution", ErrCotutelleIncomplete)
	}
	if len(c.OpeningRequest) == 0 || len(c.Convention) == 0 {
		v.Add("documents", ErrCotutelleIncomplete)
	}
	return v.Err(ErrCotutelleIncomplete)
}

// CheckSignatories reports every reason why signatures cannot be requested from the group yet.
func (g *Group) CheckSignatories(minCommitteeMembers int) error {
	var v core.Violations
	promoters := g.ByRole(RolePromoter)
	if len(promoters) == 0 {
		v.Add("promoters", ErrPromoterMissing)
	} else if g.ReferencePromoterID == "" {
		v.Add("reference_promoter", ErrReferencePromoterMissing)
	}
	if len(g.ByRole(RoleCommitteeMember)) < minCommitteeMembers {
		v.Add("committee_members", ErrCommitteeMemberMissing)
	}
	if g.Cotutelle != nil {
		if err := g.Cotutelle.Validate(); err != nil {
			v.Add("cotutelle", ErrCotutelleIncomplete)
		}
		var external bool
		for _, p := range promoters {
			external = external || p.Actor.IsExternal()
		}
		if !external {
			v.Add("cotutelle", ErrCotutellePromoterMissing)
		}
	}
	return v.Err(ErrNotEligibleForSignature)
}
