package rustemitter

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/qigen/internal/compile"
	"github.com/mark3labs/qigen/internal/emitter"
	"github.com/mark3labs/qigen/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetsYAML = `openapi: 3.0.3
info:
  title: Widgets
  version: "1.0"
paths:
  /widgets/{id}:
    get:
      operationId: GetWidget
      summary: Fetch one widget.
      parameters:
        - name: id
          in: path
          schema: {type: string}
        - name: X-Request-Id
          in: header
          required: true
          schema: {type: string}
        - name: limit
          in: query
          schema: {type: integer, format: int32}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  name: {type: string}
    options:
      operationId: widgetOptions
      responses:
        "204":
          description: allowed
  /widgets/{id}/blob:
    put:
      operationId: uploadBlob
      parameters:
        - name: id
          in: path
          schema: {type: string}
      requestBody:
        content:
          application/octet-stream:
            schema: {type: string, format: binary}
      responses:
        "204":
          description: stored
  /nodes/:
    post:
      operationId: createNode
      requestBody:
        content:
          application/json:
            schema: {$ref: '#/components/schemas/Node'}
      responses:
        "201":
          description: created
          headers:
            Location:
              required: true
              schema: {type: string}
          content:
            application/json:
              schema: {$ref: '#/components/schemas/Node'}
components:
  schemas:
    Node:
      type: object
      properties:
        parent: {$ref: '#/components/schemas/Node'}
        children: {type: array, items: {$ref: '#/components/schemas/Node'}}
        created: {type: string, format: date-time}
        labels: {$ref: '#/components/schemas/Labels'}
        meta:
          type: object
          properties:
            owner: {type: string, description: Who created it.}
    Labels:
      type: object
      additionalProperties: {type: string}
`

func render(t *testing.T, src string, opts emitter.Options) string {
	t.Helper()
	doc, err := spec.DecodeYAML([]byte(src))
	require.NoError(t, err)
	svc, err := compile.Build(doc)
	require.NoError(t, err)
	res, err := emitter.Render(context.Background(), svc, New(), opts)
	require.NoError(t, err)
	return string(res.Source)
}

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func TestRenderGetWidget(t *testing.T) {
	t.Parallel()

	out := squash(render(t, widgetsYAML, emitter.Options{}))

	assert.True(t, strings.HasPrefix(out, "// Code generated by qigen. DO NOT EDIT. //! Request and response types of Widgets 1.0."))
	assert.Contains(t, out, "/// GetWidgetInput holds the request values of GET /widgets/{id}. /// /// Fetch one widget.")
	assert.Contains(t, out, "pub struct GetWidgetInput { pub id: String, pub limit: Option<i32>, pub x_request_id: String, }")
	assert.Contains(t, out, "pub struct GetWidgetOutput { pub name: String, }")
	assert.Contains(t, out, "impl GetWidgetOutput { pub const STATUS_CODE: u16 = 200; }")
	assert.NotContains(t, out, "configure", "routes are opt-in")
}

func TestRenderBinaryBodyIsStream(t *testing.T) {
	t.Parallel()

	out := squash(render(t, widgetsYAML, emitter.Options{}))
	assert.Contains(t, out, "pub struct UploadBlobInput { pub id: String, pub body: Box<dyn Iterator<Item = u8> + Send>, }")
	assert.Contains(t, out, "pub struct UploadBlobOutput {}")
	assert.Contains(t, out, "impl UploadBlobOutput { pub const STATUS_CODE: u16 = 204; }")
}

func TestRenderNamedStructs(t *testing.T) {
	t.Parallel()

	out := squash(render(t, widgetsYAML, emitter.Options{}))
	assert.Contains(t, out, "use serde::{Deserialize, Serialize};")
	assert.Contains(t, out, `/// Node is generated from the "Node" schema. #[derive(Debug, Clone, Serialize, Deserialize)] pub struct Node { `+
		`#[serde(default, skip_serializing_if = "Option::is_none")] pub parent: Option<Box<Node>>, `+
		`pub children: Vec<Node>, pub created: chrono::DateTime<chrono::Utc>, `+
		`pub labels: std::collections::HashMap<String, String>, pub meta: NodeMeta, }`)
	assert.Contains(t, out, "#[derive(Debug, Clone, Serialize, Deserialize)] pub struct NodeMeta { /// Who created it. pub owner: String, }")
	assert.NotContains(t, out, "pub struct Labels", "non-struct models are substituted")

	// Inline structs reached through a flattened body get names of their own.
	assert.Contains(t, out, "pub struct CreateNodeInput { pub parent: Option<Box<Node>>, pub children: Vec<Node>,")
	assert.Contains(t, out, "pub meta: CreateNodeInputMeta, }")
	assert.Contains(t, out, "pub struct CreateNodeOutput { pub location: String, pub parent: Option<Box<Node>>,")
	assert.Contains(t, out, "pub struct CreateNodeOutputMeta { /// Who created it. pub owner: String, }")
}

func TestRenderRecursionThroughAlias(t *testing.T) {
	t.Parallel()

	out := squash(render(t, `openapi: 3.0.0
paths: {}
components:
  schemas:
    Node:
      type: object
      properties:
        next: {$ref: '#/components/schemas/NodeAlias'}
    NodeAlias: {$ref: '#/components/schemas/Node'}
`, emitter.Options{}))
	assert.Contains(t, out, `pub struct Node { #[serde(default, skip_serializing_if = "Option::is_none")] pub next: Option<Box<Node>>, }`)
}

func TestRenderRoutes(t *testing.T) {
	t.Parallel()

	out := squash(render(t, widgetsYAML, emitter.Options{Routes: true}))
	assert.Contains(t, out, "use actix_web::{web, HttpResponse}; use serde::{Deserialize, Serialize};")
	assert.Contains(t, out, "/// Registers the operations of Widgets. pub fn configure(cfg: &mut web::ServiceConfig) {")
	assert.Contains(t, out, `cfg.route("/widgets/{id}", web::get().to(get_widget));`)
	assert.Contains(t, out, `cfg.route("/widgets/{id}", web::route().method(actix_web::http::Method::OPTIONS).to(widget_options));`)
	assert.Contains(t, out, `cfg.route("/widgets/{id}/blob", web::put().to(upload_blob));`)
	assert.Contains(t, out, `cfg.route("/nodes/", web::post().to(create_node));`)
	assert.Contains(t, out, "/// Handles PUT /widgets/{id}/blob. /// Success status codes: 204. async fn upload_blob() -> HttpResponse { HttpResponse::NotImplemented().finish() }")
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	first := render(t, widgetsYAML, emitter.Options{Routes: true})
	for range 5 {
		assert.Equal(t, first, render(t, widgetsYAML, emitter.Options{Routes: true}))
	}
}

func TestRenderFieldNames(t *testing.T) {
	t.Parallel()

	out := squash(render(t, `openapi: 3.0.0
paths: {}
components:
  schemas:
    Pet:
      type: object
      properties:
        type: {type: string}
        petName: {type: string}
        X-Trace: {type: boolean}
        self: {type: integer, format: int64}
        tags: {type: array, items: {type: object, properties: {v: {type: number}}}}
    PetTags: {type: object}
`, emitter.Options{}))

	assert.Contains(t, out, "pub struct Pet { pub r#type: String, "+
		`#[serde(rename = "petName")] pub pet_name: String, `+
		`#[serde(rename = "X-Trace")] pub x_trace: bool, `+
		`#[serde(rename = "self")] pub self_: i64, `+
		"pub tags: Vec<PetTags2>, }")
	assert.Contains(t, out, "pub struct PetTags {}")
	assert.Contains(t, out, "pub struct PetTags2 { pub v: f32, }")
}

func TestPrepareRejectsBadModule(t *testing.T) {
	t.Parallel()

	doc, err := spec.DecodeYAML([]byte("openapi: 3.0.0\npaths: {}\n"))
	require.NoError(t, err)
	svc, err := compile.Build(doc)
	require.NoError(t, err)
	for _, name := range []string{"Not-Valid", "type"} {
		_, err = emitter.Render(context.Background(), svc, New(), emitter.Options{Package: name})
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "invalid module name")
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	types := map[string]string{
		"getPetsId":    "GetPetsId",
		"X-Request-Id": "XRequestId",
		"2fa":          "N2Fa",
		"$":            "X",
	}
	for in, want := range types {
		assert.Equal(t, want, typeName(in), in)
	}
	fields := map[string]string{
		"getPetsId":    "get_pets_id",
		"X-Request-Id": "x_request_id",
		"match":        "r#match",
		"crate":        "crate_",
		"$":            "x",
	}
	for in, want := range fields {
		assert.Equal(t, want, fieldName(in), in)
	}
}
