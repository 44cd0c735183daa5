package auth

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/document"
)

var conf = &core.Config{
	AppName: "Admission",
	Server:  core.ServerConfig{JWTExpirationDelta: time.Hour},
}

func TestNewClaims(t *testing.T) {
	if _, err := NewClaims(conf, "00000001", "", RolePromoter, "dean"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("NewClaims() error = %v, wantErr %v", err, ErrUnknownRole)
	}

	claims, err := NewClaims(conf, "00000001", "Jane", RolePromoter, RoleManagerFAC)
	if err != nil {
		t.Fatalf("NewClaims() error = %v", err)
	}
	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{name: "no role required", want: true},
		{name: "held role", roles: []string{RoleCandidate, RolePromoter}, want: true},
		{name: "missing roles", roles: []string{RoleCandidate, RoleManagerSIC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := claims.HasAnyRole(tt.roles...); got != tt.want {
				t.Errorf("HasAnyRole() = %v, want %v", got, tt.want)
			}
		})
	}
	if body, ok := claims.Body(); !ok || body != document.BodyFAC {
		t.Errorf("Body() = %v, %v; want %v", body, ok, document.BodyFAC)
	}
}

func TestGenerateParseToken(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = time.Now }()

	claims, _ := NewClaims(conf, "candidate", "John Doe", RoleCandidate)
	token, err := GenerateToken(claims, "secret")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		secret  string
		at      time.Time
		wantErr error
	}{
		{name: "valid", token: token, secret: "secret", at: now},
		{name: "wrong secret", token: token, secret: "other", at: now, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.token", secret: "secret", at: now, wantErr: ErrInvalidToken},
		{name: "expired", token: token, secret: "secret", at: now.Add(2 * time.Hour), wantErr: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core.NowFunc = func() time.Time { return tt.at }
			got, err := ParseToken(tt.token, tt.secret)
			if err != tt.wantErr {
				t.Fatalf("ParseToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (got.Subject != "candidate" || !got.HasRole(RoleCandidate)) {
				t.Errorf("ParseToken() = %+v", got)
			}
		})
	}
}
