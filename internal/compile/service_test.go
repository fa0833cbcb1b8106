package compile

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReferenceRoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := Build(decode(t, `openapi: 3.0.0
info: {title: Foos, version: "2.1"}
paths:
  /foos:
    get:
      operationId: listFoos
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  foo: {$ref: '#/components/schemas/Foo'}
components:
  schemas:
    Foo:
      type: object
      properties:
        id: {type: integer, format: int64}
`))
	require.NoError(t, err)

	assert.Equal(t, "Foos", svc.Title)
	assert.Equal(t, "2.1", svc.Version)
	assert.True(t, svc.Models.Has("Foo"))
	require.Len(t, svc.Operations, 1)
	body := svc.Operations[0].Output.Body
	require.NotNil(t, body)
	p, ok := body.Property("foo")
	require.True(t, ok)
	assert.Equal(t, ir.Ref("Foo"), p.Model)
	assert.Equal(t, []string{"Foo"}, svc.Order)
}

func TestBuildHoistsStructParameters(t *testing.T) {
	t.Parallel()

	svc, err := Build(decode(t, `openapi: 3.0.0
paths:
  /search:
    get:
      operationId: search_items
      parameters:
        - $ref: '#/components/parameters/Paging'
        - name: filter
          in: query
          schema:
            type: object
            properties:
              color: {type: string}
      responses: {}
components:
  parameters:
    Paging:
      name: paging
      in: query
      schema:
        type: object
        properties:
          page: {type: integer}
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Paging", "SearchItemsFilter"}, svc.Models.Keys())
	paging, _ := svc.Parameters.Get("Paging")
	assert.Equal(t, ir.Ref("Paging"), paging.Model)

	query := svc.Operations[0].Input.Query
	require.Len(t, query, 2)
	assert.Equal(t, ir.Ref("Paging"), query[0].Model)
	assert.Equal(t, ir.Ref("SearchItemsFilter"), query[1].Model)
	filter, _ := svc.Models.Get("SearchItemsFilter")
	assert.Equal(t, ir.Struct, filter.Kind)
}

func TestBuildRejectsDuplicateHoistedName(t *testing.T) {
	t.Parallel()

	_, err := Build(decode(t, `openapi: 3.0.0
paths: {}
components:
  schemas:
    Paging: {type: string}
  parameters:
    Paging:
      name: paging
      in: query
      schema: {type: object, properties: {page: {type: integer}}}
`))
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Paging", dup.Name)
}

func TestBuildUnresolvedReferences(t *testing.T) {
	t.Parallel()

	_, err := Build(decode(t, `openapi: 3.0.0
paths:
  /a:
    get:
      operationId: getA
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/Ghost'}
components:
  schemas:
    Owner:
      type: object
      properties:
        pet: {$ref: '#/components/schemas/Phantom'}
`))
	require.Error(t, err)
	var unresolved *UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, err.Error(), `schema "Owner": unresolved reference "#/components/schemas/Phantom"`)
	assert.Contains(t, err.Error(), `operation "getA": unresolved reference "#/components/schemas/Ghost"`)
}

func TestBuildSchemaRefWithoutComponents(t *testing.T) {
	t.Parallel()

	_, err := Build(decode(t, `openapi: 3.0.0
paths:
  /w:
    get:
      operationId: GetW
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/Widget'}
`))
	require.Error(t, err)
	var missing *MissingComponentsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "#/components/schemas/Widget", missing.Ref)
	var unresolved *UnresolvedReferenceError
	assert.False(t, errors.As(err, &unresolved))
	assert.Contains(t, err.Error(), `operation "GetW": reference "#/components/schemas/Widget" used but the document has no components`)
}

func TestBuildCollectsErrorsAcrossSchemas(t *testing.T) {
	t.Parallel()

	_, err := Build(decode(t, `openapi: 3.0.0
paths: {}
components:
  schemas:
    A: {type: array}
    B: {type: tuple}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "A"`)
	assert.Contains(t, err.Error(), `schema "B"`)
}

func TestBuildAliasCycle(t *testing.T) {
	t.Parallel()

	_, err := Build(decode(t, `openapi: 3.0.0
paths: {}
components:
  schemas:
    X: {$ref: '#/components/schemas/Y'}
    Y: {type: array, items: {$ref: '#/components/schemas/X'}}
`))
	var cycle *topology.CycleError[string]
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"X", "Y", "X"}, cycle.Path)
}

func TestBuildAllowsRecursiveStructs(t *testing.T) {
	t.Parallel()

	svc, err := Build(decode(t, `openapi: 3.0.0
paths: {}
components:
  schemas:
    Tree:
      type: object
      properties:
        children: {type: array, items: {$ref: '#/components/schemas/Node'}}
    Node:
      type: object
      properties:
        parent: {$ref: '#/components/schemas/Node'}
        tree: {$ref: '#/components/schemas/Tree'}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Node", "Tree"}, svc.Order)
}

func TestBuildLogsProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := Build(decode(t, widgetDoc), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "building operation")
	assert.Contains(t, buf.String(), "id=GetWidget")
}

func TestBuildNilDocument(t *testing.T) {
	t.Parallel()

	_, err := Build(nil)
	assert.Error(t, err)
}
