// Package auth issues and verifies the JWTs carrying the roles of the people acting on propositions.
package auth

import (

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/document"
)

const (
	RoleCandidate  = "candidate"
	RolePromoter   = "promoter"
	RoleCommittee  = "committee"
	RoleManagerSIC = "manager:sic"
	RoleManagerFAC = "manager:fac"

	audience = "admission"
)

var (
	Roles = []string{RoleCandidate, RolePromoter, RoleCommittee, RoleManagerSIC, RoleManagerFAC}

	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the applicant id of candidates, the matricule of the others.
type Claims struct {
	jwt.StandardClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

// NewClaims returns the claims of subject, valid for conf.Server.JWTExpirationDelta.
func NewClaims(conf *core.Config, subject, name string, roles ...string) (*Claims, error) {
	for _, r := range roles {
		if !validRole(r) {
			return nil, errors.Wrap(ErrUnknownRole, r)
		}
	}
	now := core.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  name,
		Roles: roles,
	}, nil
}

func validRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Valid checks the standard claims against core.Now.
func (c *Claims) Valid() error {
	now := core.Now().Unix()
	if !c.VerifyExpiresAt(now, true) || !c.VerifyIssuedAt(now, false) || !c.VerifyAudience(audience, true) {
		return ErrInvalidToken
	}
	if c.Subject == "" {
		return ErrInvalidToken
	}
	return nil
}

func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the claims carry one of roles, true when roles is empty.
func (c *Claims) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// IsManager reports whether the claims carry a manager role.
func (c *Claims) IsManager() bool {
	return c.HasAnyRole(RoleManagerSIC, RoleManagerFAC)
}

// Body returns the body the manager acts for, SIC taking precedence.
func (c *Claims) Body() (document.Body, bool) {
	switch {
	case c.HasRole(RoleManagerSIC):
		return document.BodySIC, true
	case c.HasRole(RoleManagerFAC):
		return document.BodyFAC, true
	}
	return "", false
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies the signature and the claims of token.
func ParseToken(token, secret string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
