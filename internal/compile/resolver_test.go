package compile

import (
	"testing"

	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/spec"
	"github.com/mark3labs/qigen/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, src string) *spec.Document {
	t.Helper()
	doc, err := spec.DecodeYAML([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestRefName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"#/components/schemas/Pet":         "Pet",
		"#/components/parameters/limit":    "limit",
		"#/components/schemas/a~1b":        "a/b",
		"#/components/schemas/til~0de":     "til~de",
		"other.yaml#/components/schemas/X": "X",
		"Pet":                              "Pet",
	}
	for ref, want := range tests {
		assert.Equal(t, want, RefName(ref), ref)
	}
}

const resolverDoc = `openapi: 3.0.0
paths: {}
components:
  schemas:
    Pet: {type: object}
  parameters:
    Limit:
      name: limit
      in: query
      schema: {type: integer, format: int32}
    PetID:
      name: id
      in: path
      schema: {type: string}
  responses:
    NotFound:
      description: missing
    Alias:
      $ref: '#/components/responses/NotFound'
    LoopA:
      $ref: '#/components/responses/LoopB'
    LoopB:
      $ref: '#/components/responses/LoopA'
  requestBodies:
    PetBody:
      required: true
      content:
        application/json:
          schema: {$ref: '#/components/schemas/Pet'}
  headers:
    RateLimit:
      required: true
      schema: {type: integer}
`

func TestResolverComponentParameters(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(decode(t, resolverDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Limit", "PetID"}, r.Parameters().Keys())

	limit, err := r.Parameter("#/components/parameters/Limit")
	require.NoError(t, err)
	assert.Equal(t, ir.InQuery, limit.In)
	assert.Equal(t, "limit", limit.Name)
	assert.Equal(t, ir.Int32, limit.Model.Kind)
	assert.False(t, limit.Mandatory)

	id, err := r.Parameter("#/components/parameters/PetID")
	require.NoError(t, err)
	assert.True(t, id.Mandatory, "path parameters are always mandatory")

	_, err = r.Parameter("#/components/parameters/Missing")
	var unresolved *UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "#/components/parameters/Missing", unresolved.Ref)
}

func TestResolverLookups(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(decode(t, resolverDoc))
	require.NoError(t, err)

	s, err := r.Schema("#/components/schemas/Pet")
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)

	resp, err := r.Response("#/components/responses/Alias")
	require.NoError(t, err)
	assert.Equal(t, "missing", resp.Description)

	body, err := r.RequestBody("#/components/requestBodies/PetBody")
	require.NoError(t, err)
	assert.True(t, body.Required)

	h, err := r.Header("#/components/headers/RateLimit")
	require.NoError(t, err)
	assert.True(t, h.Required)

	// The name is looked up in the requested namespace only.
	_, err = r.Schema("#/components/parameters/Limit")
	var unresolved *UnresolvedReferenceError
	assert.ErrorAs(t, err, &unresolved)
}

func TestResolverReferenceLoop(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(decode(t, resolverDoc))
	require.NoError(t, err)

	_, err = r.Response("#/components/responses/LoopA")
	var cycle *topology.CycleError[string]
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{
		"#/components/responses/LoopA",
		"#/components/responses/LoopB",
		"#/components/responses/LoopA",
	}, cycle.Path)
}

func TestResolverWithoutComponents(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(decode(t, "openapi: 3.0.0\npaths: {}\n"))
	require.NoError(t, err)

	_, err = r.Parameter("#/components/parameters/Limit")
	var missing *MissingComponentsError
	require.ErrorAs(t, err, &missing)

	_, err = r.Response("#/components/responses/X")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "#/components/responses/X", missing.Ref)
}

func TestResolverRejectsBadComponentParameters(t *testing.T) {
	t.Parallel()

	_, err := NewResolver(decode(t, `openapi: 3.0.0
components:
  parameters:
    Indirect:
      $ref: '#/components/parameters/Other'
    Cookie:
      name: session
      in: cookie
      schema: {type: string}
    Untyped:
      name: q
      in: query
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "Indirect": component parameters cannot be references`)

	var location *InvalidLocationError
	require.ErrorAs(t, err, &location)
	assert.Equal(t, "cookie", location.Location)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "schema", missing.Field)
}

func TestParameterFromContent(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(decode(t, `openapi: 3.0.0
components:
  parameters:
    Filter:
      name: filter
      in: query
      content:
        application/json:
          schema: {type: array, items: {type: string}}
        text/plain:
          schema: {type: string}
`))
	require.NoError(t, err)
	p, err := r.Parameter("#/components/parameters/Filter")
	require.NoError(t, err)
	assert.Equal(t, ir.ArrayOf(ir.Primitive(ir.String)), p.Model)
}
