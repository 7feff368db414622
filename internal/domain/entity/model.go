package entity

import (
	"errors"
	"fmt"
)

// Kind discriminates the four canonical corpora kept in the reference store.
type Kind string

const (
	KindSubject Kind = "subject"
	KindMarket  Kind = "market"
	KindTeam    Kind = "team"
	KindLeague  Kind = "league"
)

var AllKinds = map[Kind]struct{}{
	KindSubject: {},
	KindMarket:  {},
	KindTeam:    {},
	KindLeague:  {},
}

// PartitionUnknown marks a mention whose collaborator could not supply
// enough context to derive a partition. Matching degrades to a full scan.
const PartitionUnknown = ""

var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicateName = errors.New("duplicate canonical name in partition")
)

// Canonical is the single reference record all mentions of the same
// real-world subject/market/team/league resolve to. ID and Partition are
// immutable after creation; AltNames grows monotonically.
type Canonical struct {
	ID            string
	Kind          Kind
	Partition     string
	CanonicalName string
	AltNames      []string

	// Subject attributes. Team and Jersey change over a career and are
	// always refreshed on match; Position is kept once learned.
	Team     string
	Position string
	Jersey   string

	// Team attributes.
	AbbrName string
	FullName string
}

func (c Canonical) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("entity id is required")
	}
	if _, ok := AllKinds[c.Kind]; !ok {
		return fmt.Errorf("invalid entity kind: %s", c.Kind)
	}
	if c.CanonicalName == "" {
		return fmt.Errorf("entity canonical name is required")
	}
	return nil
}

// HasAltName reports whether name is already a recorded variant.
func (c Canonical) HasAltName(name string) bool {
	for _, alt := range c.AltNames {
		if alt == name {
			return true
		}
	}
	return false
}

// Context carries whichever attributes a source happened to report
// alongside a raw name. All fields are optional.
type Context struct {
	League   string
	Sport    string
	Team     string
	Position string
	Jersey   string
}

// Mention is a raw, source-reported occurrence of an entity name.
type Mention struct {
	Kind    Kind
	Name    string
	Source  string
	Context Context
}

func (m Mention) Validate() error {
	if _, ok := AllKinds[m.Kind]; !ok {
		return fmt.Errorf("invalid mention kind: %s", m.Kind)
	}
	if m.Name == "" {
		return fmt.Errorf("mention name is required")
	}
	if m.Source == "" {
		return fmt.Errorf("mention source is required")
	}
	return nil
}

// AttributeUpdate is a partial write against a canonical entity. Nil fields
// are left untouched.
type AttributeUpdate struct {
	Team     *string
	Position *string
	Jersey   *string
}

func (u AttributeUpdate) Empty() bool {
	return u.Team == nil && u.Position == nil && u.Jersey == nil
}
