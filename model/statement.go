// Package model defines the canonical vocabulary the coordinator, the ORM
// mapper, and the Dependency Engine all speak: Statement/Mutation on the way
// in, CacheEntry on the way out. Every type here is a value object intended
// for JSON round-tripping across the engine's wasm ABI, so field names are
// chosen to match the wire contract exactly rather than idiomatic Go casing
// where the two would otherwise diverge.
package model

// Statement is a canonical, engine-recognised description of a read.
// Two Statements with equal normalized content map to equal ShapeIds; the
// coordinator never inspects a Statement's fields itself, it only ever
// forwards the value to the engine and caches against the ShapeId the
// engine hands back.
type Statement struct {
	Model       string       `json:"model"`
	Operation   string       `json:"operation,omitempty"`
	Projection  []string     `json:"projection,omitempty"`
	Filter      *Filter      `json:"filter,omitempty"`
	Sort        []SortTerm   `json:"sort,omitempty"`
	Pagination  *Pagination  `json:"pagination,omitempty"`
	Inclusions  []Inclusion  `json:"inclusions,omitempty"`
	Distinct    []string     `json:"distinct,omitempty"`
	Grouping    *Grouping    `json:"grouping,omitempty"`
}

// Filter is a boolean tree of Conditions. Exactly one of And, Or, Not, or a
// populated leaf condition fields should be set; the engine, not this
// package, enforces well-formedness.
type Filter struct {
	And       []Filter   `json:"and,omitempty"`
	Or        []Filter   `json:"or,omitempty"`
	Not       *Filter    `json:"not,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
}

// Condition is a single leaf comparison. NestedPath lets a mapper address a
// field through a relation (e.g. "author.email") without the coordinator
// needing to understand relations itself.
type Condition struct {
	Field      string `json:"field"`
	NestedPath string `json:"nestedPath,omitempty"`
	Operator   string `json:"operator"`
	Value      any    `json:"value,omitempty"`
}

// SortTerm orders results by one field.
type SortTerm struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// Pagination bounds a result window.
type Pagination struct {
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}

// Inclusion nests a related Statement under a relation name.
type Inclusion struct {
	Relation  string    `json:"relation"`
	Statement Statement `json:"statement"`
}

// Grouping groups results by fields, optionally filtered by a having clause.
type Grouping struct {
	Fields []string `json:"fields"`
	Having *Filter  `json:"having,omitempty"`
}

// ShapeId is the opaque, engine-assigned cache key for a Statement. The
// coordinator treats it as a string and never parses its structure.
type ShapeId string
