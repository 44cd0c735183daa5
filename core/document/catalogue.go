package document

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Profile is a flat snapshot of the candidate data the required documents depend on,
// e.g. {"nationality_eu": "true", "financing_type": "WORK_CONTRACT"}.
type Profile map[string]string

type (
	// Catalogue lists the document slots and the profile conditions requiring them.
	Catalogue struct {
		Slots []SlotRule `yaml:"slots"`
	}

	SlotRule struct {
		ID     string            `yaml:"id"`
		Kind   Kind              `yaml:"kind"`
		Timing Timing            `yaml:"timing"`
		Label  map[string]string `yaml:"label"`

		// every condition must hold, none means always required
		When []Condition `yaml:"when"`
	}

	// Condition holds when the profile field is one of In (if any)
	// and, if Present is set, when the field is filled in or not.
	Condition struct {
		Field   string   `yaml:"field"`
		In      []string `yaml:"in"`
		Present *bool    `yaml:"present"`
	}
)

func LoadCatalogue(r io.Reader) (*Catalogue, error) {
	var c Catalogue
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "decoding document catalogue")
	}

	seen := make(map[string]bool, len(c.Slots))
	for i, s := range c.Slots {
		if s.ID == "" || seen[s.ID] {
			return nil, errors.Wrapf(ErrInvalidCatalogue, "slot %d: missing or duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if !s.Kind.Valid() {
			return nil, errors.Wrapf(ErrInvalidCatalogue, "slot %s: kind %q", s.ID, s.Kind)
		}
		if s.Timing == "" {
			c.Slots[i].Timing = TimingImmediately
		} else if !s.Timing.Valid() {
			return nil, errors.Wrapf(ErrInvalidCatalogue, "slot %s: timing %q", s.ID, s.Timing)
		}
		for _, cond := range s.When {
			if cond.Field == "" {
				return nil, errors.Wrapf(ErrInvalidCatalogue, "slot %s: condition without field", s.ID)
			}
		}
	}
	return &c, nil
}

func (c Condition) holds(p Profile) bool {
	value := p[c.Field]
	if c.Present != nil && (value != "") != *c.Present {
		return false
	}
	if len(c.In) == 0 {
		return true
	}
	for _, v := range c.In {
		if v == value {
			return true
		}
	}
	return false
}

func (s SlotRule) requiredFor(p Profile) bool {
	for _, c := range s.When {
		if !c.holds(p) {
			return false
		}
	}
	return true
}

// RequiredSlots returns the slots required for the profile, sorted by id.
func (c *Catalogue) RequiredSlots(p Profile) []SlotRequest {
	var slots []SlotRequest
	for _, s := range c.Slots {
		if s.requiredFor(p) {
			slots = append(slots, SlotRequest{Slot: s.ID, Kind: s.Kind, Timing: s.Timing})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
	return slots
}

// Label returns the label of slot in lang, the slot id when unknown.
func (c *Catalogue) Label(slot, lang string) string {
	for _, s := range c.Slots {
		if s.ID == slot {
			if l, ok := s.Label[lang]; ok {
				return l
			}
			break
		}
	}
	return slot
}
