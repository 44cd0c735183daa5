package document

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const testCatalogue = `
slots:
  - id: ID_CARD
    kind: NON_FREE
    label: {en: Identity card, fr: Carte d'identité}
  - id: RESIDENCE_PERMIT
    kind: NON_FREE
    when:
      - field: nationality_eu
        in: ["false"]
  - id: WORK_CONTRACT
    kind: NON_FREE
    timing: LATER_BLOCKING
    when:
      - field: financing_type
        in: [WORK_CONTRACT]
  - id: SCHOLARSHIP_PROOF
    kind: FREE
    when:
      - field: scholarship
        present: true
      - field: financing_type
        in: [SEARCH_SCHOLARSHIP]
`

func TestCatalogue_RequiredSlots(t *testing.T) {
	c, err := LoadCatalogue(strings.NewReader(testCatalogue))
	if err != nil {
		t.Fatalf("LoadCatalogue() error = %v", err)
	}

	tests := []struct {
		name    string
		profile Profile
		want    []string
	}{
		{name: "empty profile", profile: Profile{}, want: []string{"ID_CARD"}},
		{name: "non EU", profile: Profile{"nationality_eu": "false"}, want: []string{"ID_CARD", "RESIDENCE_PERMIT"}},
		{name: "work contract", profile: Profile{"nationality_eu": "true", "financing_type": "WORK_CONTRACT"}, want: []string{"ID_CARD", "WORK_CONTRACT"}},
		{name: "scholarship type without scholarship", profile: Profile{"financing_type": "SEARCH_SCHOLARSHIP"}, want: []string{"ID_CARD"}},
		{
			name:    "scholarship",
			profile: Profile{"financing_type": "SEARCH_SCHOLARSHIP", "scholarship": "FNRS"},
			want:    []string{"ID_CARD", "SCHOLARSHIP_PROOF"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]string, 0)
			for _, s := range c.RequiredSlots(tt.profile) {
				got = append(got, s.Slot)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RequiredSlots() = %v, want %v", got, tt.want)
			}
		})
	}

	if l := c.Label("ID_CARD", "fr"); l != "Carte d'identité" {
		t.Errorf("Label() = %q", l)
	}
	if l := c.Label("WORK_CONTRACT", "fr"); l != "WORK_CONTRACT" {
		t.Errorf("Label() = %q, want the slot id", l)
	}
	for _, s := range c.Slots {
		if s.Timing == "" {
			t.Errorf("slot %s has no default timing", s.ID)
		}
	}
}

func TestLoadCatalogue_invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "duplicate id", yaml: "slots:\n  - {id: A, kind: FREE}\n  - {id: A, kind: FREE}\n", wantErr: ErrInvalidCatalogue},
		{name: "unknown kind", yaml: "slots:\n  - {id: A, kind: PAPER}\n", wantErr: ErrInvalidCatalogue},
		{name: "unknown timing", yaml: "slots:\n  - {id: A, kind: FREE, timing: NEVER}\n", wantErr: ErrInvalidCatalogue},
		{name: "condition without field", yaml: "slots:\n  - {id: A, kind: FREE, when: [{in: [x]}]}\n", wantErr: ErrInvalidCatalogue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCatalogue(strings.NewReader(tt.yaml)); !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadCatalogue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadCatalogue(strings.NewReader("slots:\n  - {id: A, kind: FREE, colour: red}\n")); err == nil {
		t.Errorf("LoadCatalogue() accepted an unknown field")
	}
}
