package inmemdb

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/admission/core/catalog"
)

// Catalog serves the reference data owned by other systems: programs, scholarships,
// the academic calendar, the people directory and the candidate profiles.
type Catalog struct {
	db *catalogTables
}

var (
	_ catalog.Programs     = (*Catalog)(nil)
	_ catalog.Scholarships = (*Catalog)(nil)
	_ catalog.Calendar     = (*Catalog)(nil)
	_ catalog.Actors       = (*Catalog)(nil)
	_ catalog.Profiles     = (*Catalog)(nil)
)

func NewCatalog(db *DB) *Catalog {
	return &Catalog{db: db.catalog}
}

// Fixtures is the YAML layout LoadFixtures reads.
type Fixtures struct {
	Programs     []catalog.Program                   `yaml:"programs"`
	Scholarships []catalog.Scholarship               `yaml:"scholarships"`
	Pools        map[string][]catalog.Pool           `yaml:"pools"` // by program id, "*" for every program
	People       []catalog.Person                    `yaml:"people"`
	Profiles     map[string]catalog.CandidateProfile `yaml:"profiles"` // by applicant id
}

// LoadFixtures adds the reference data read from r.
func (c *Catalog) LoadFixtures(r io.Reader) error {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return errors.Wrap(err, "decoding catalog fixtures")
	}
	c.AddPrograms(f.Programs...)
	c.AddScholarships(f.Scholarships...)
	for programID, pools := range f.Pools {
		if programID == "*" {
			programID = ""
		}
		c.AddPools(programID, pools...)
	}
	c.AddPeople(f.People...)
	for id, p := range f.Profiles {
		c.AddProfile(id, p)
	}
	return nil
}

func (c *Catalog) AddPrograms(programs ...catalog.Program) {
	c.db.mutex.Lock()
	defer c.db.mutex.Unlock()
	for _, p := range programs {
		c.db.programs[p.ID] = p
	}
}

func (c *Catalog) AddScholarships(scholarships ...catalog.Scholarship) {
	c.db.mutex.Lock()
	defer c.db.mutex.Unlock()
	for _, s := range scholarships {
		c.db.scholarships[s.ID] = s
	}
}

// AddPools opens application windows for programID, or for every program when empty.
func (c *Catalog) AddPools(programID string, pools ...catalog.Pool) {
	c.db.mutex.Lock()
	defer c.db.mutex.Unlock()
	c.db.pools[programID] = append(c.db.pools[programID], pools...)
}

func (c *Catalog) AddPeople(people ...catalog.Person) {
	c.db.mutex.Lock()
	defer c.db.mutex.Unlock()
	for _, p := range people {
		c.db.people[p.Matricule] = p
	}
}

func (c *Catalog) AddProfile(applicantID string, profile catalog.CandidateProfile) {
	c.db.mutex.Lock()
	defer c.db.mutex.Unlock()
	c.db.profiles[applicantID] = clone(profile)
}

func (c *Catalog) GetProgram(_ context.Context, id string) (catalog.Program, error) {
	c.db.mutex.RLock()
	defer c.db.mutex.RUnlock()
	p, ok := c.db.programs[id]
	if !ok {
		return catalog.Program{}, catalog.ErrProgramNotFound
	}
	return clone(p), nil
}

func (c *Catalog) GetScholarship(_ context.Context, id string) (catalog.Scholarship, error) {
	c.db.mutex.RLock()
	defer c.db.mutex.RUnlock()
	s, ok := c.db.scholarships[id]
	if !ok {
		return catalog.Scholarship{}, catalog.ErrScholarshipNotFound
	}
	return s, nil
}

func (c *Catalog) DeterminePool(_ context.Context, programID string, at time.Time) (catalog.Pool, error) {
	c.db.mutex.RLock()
	defer c.db.mutex.RUnlock()
	for _, key := range []string{programID, ""} {
		for _, pool := range c.db.pools[key] {
			if !at.Before(pool.Start) && at.Before(pool.End) {
				return pool, nil
			}
		}
	}
	return catalog.Pool{}, catalog.ErrNoPoolOpen
}

func (c *Catalog) GetPerson(_ context.Context, matricule string) (catalog.Person, error) {
	c.db.mutex.RLock()
	defer c.db.mutex.RUnlock()
	p, ok := c.db.people[matricule]
	if !ok {
		return catalog.Person{}, catalog.ErrActorNotFound
	}
	return p, nil
}

func (c *Catalog) GetProfile(_ context.Context, applicantID string) (catalog.CandidateProfile, error) {
	c.db.mutex.RLock()
	defer c.db.mutex.RUnlock()
	p, ok := c.db.profiles[applicantID]
	if !ok {
		return catalog.CandidateProfile{}, catalog.ErrCandidateNotFound
	}
	return clone(p), nil
}
