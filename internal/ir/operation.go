package ir

import "github.com/mark3labs/qigen/internal/ordered"

// Method is a lowercase HTTP method name.
type Method string

const (
	GET     Method = "get"
	PUT     Method = "put"
	POST    Method = "post"
	DELETE  Method = "delete"
	OPTIONS Method = "options"
	HEAD    Method = "head"
	PATCH   Method = "patch"
	TRACE   Method = "trace"
)

// Location is where a request parameter travels.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
)

// Parameter is a named, typed request or response value. Its location is
// implied by the collection holding it.
type Parameter struct {
	Name        string
	Model       Model
	Mandatory   bool
	Description string
}

// LocatedParameter is a parameter together with its location. Component
// parameters are stored this way since no operation fixes where they go.
type LocatedParameter struct {
	Parameter
	In Location
}

type Input struct {
	Path   []Parameter
	Query  []Parameter
	Header []Parameter
	Body   *Model
	// BodyRequired mirrors the request body's "required" flag.
	BodyRequired bool
}

type Output struct {
	StatusCode int
	Header     []Parameter
	Body       *Model
}

type Operation struct {
	ID          string
	Method      Method
	URI         string
	Summary     string
	Description string
	Tags        []string
	// Expect lists the accepted success status codes in ascending order.
	Expect []int
	Input  Input
	Output Output
}

// Service is the fully resolved compilation result. It is never mutated
// after Build returns.
type Service struct {
	Title       string
	Version     string
	Models      *ordered.Map[string, Model]
	Parameters  *ordered.Map[string, LocatedParameter]
	Operations  []Operation
	Order       []string
	Diagnostics []Diagnostic
}

// Lookup resolves a reference name, first against models and then against
// parameters.
func (s *Service) Lookup(name string) (Model, bool) {
	if m, ok := s.Models.Get(name); ok {
		return m, true
	}
	if p, ok := s.Parameters.Get(name); ok {
		return p.Model, true
	}
	return Model{}, false
}

// Resolve follows m through references until it reaches a non-reference
// model. It stops after hops steps or at an unknown name, returning the last
// model reached.
func (s *Service) Resolve(m Model, hops int) Model {
	for i := 0; i < hops && m.Kind == Reference; i++ {
		next, ok := s.Lookup(m.Name)
		if !ok {
			break
		}
		m = next
	}
	return m
}

// StructRef reports whether m is a reference that ends at a Struct model,
// directly or through other references.
func (s *Service) StructRef(m Model) bool {
	if m.Kind != Reference {
		return false
	}
	return s.Resolve(m, s.Models.Len()+s.Parameters.Len()).Kind == Struct
}
