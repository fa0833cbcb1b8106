package spec

// Document is the decoded form of an OpenAPI v3 interface document. Only the
// parts the compiler reads are modelled; unknown fields are ignored. Every
// mapping keeps the order in which its keys were declared.
type Document struct {
    OpenAPI    string         `yaml:"openapi"`
    Swagger    string         `yaml:"swagger"`
    Info       Info           `yaml:"info"`
    Paths      Map[*PathItem] `yaml:"paths"`
    Components *Components    `yaml:"components"`
}

type Info struct {
    Title       string `yaml:"title"`
    Version     string `yaml:"version"`
    Description string `yaml:"description"`
}

// Components holds the named, reusable objects that "$ref" pointers target.
type Components struct {
    Schemas       Map[*Schema]      `yaml:"schemas"`
    Parameters    Map[*Parameter]   `yaml:"parameters"`
    Responses     Map[*Response]    `yaml:"responses"`
    RequestBodies Map[*RequestBody] `yaml:"requestBodies"`
    Headers       Map[*Header]      `yaml:"headers"`
}

type PathItem struct {
    Summary     string       `yaml:"summary"`
    Description string       `yaml:"description"`
    Get         *Operation   `yaml:"get"`
    Put         *Operation   `yaml:"put"`
    Post        *Operation   `yaml:"post"`
    Delete      *Operation   `yaml:"delete"`
    Options     *Operation   `yaml:"options"`
    Head        *Operation   `yaml:"head"`
    Patch       *Operation   `yaml:"patch"`
    Trace       *Operation   `yaml:"trace"`
    Parameters  []*Parameter `yaml:"parameters"`
}

// MethodOperation pairs an operation with the lowercase HTTP method it is
// declared under.
type MethodOperation struct {
    Method    string
    Operation *Operation
}

// Operations returns the declared operations in a fixed method order:
// get, put, post, delete, options, head, patch, trace.
func (p *PathItem) Operations() []MethodOperation {
    if p == nil {
        return nil
    }
    all := []MethodOperation{
        {"get", p.Get},
        {"put", p.Put},
        {"post", p.Post},
        {"delete", p.Delete},
        {"options", p.Options},
        {"head", p.Head},
        {"patch", p.Patch},
        {"trace", p.Trace},
    }
    out := all[:0]
    for _, mo := range all {
        if mo.Operation != nil {
            out = append(out, mo)
        }
    }
    return out
}

type Operation struct {
    Summary     string         `yaml:"summary"`
    Description string         `yaml:"description"`
    OperationID string         `yaml:"operationId"`
    Tags        []string       `yaml:"tags"`
    Parameters  []*Parameter   `yaml:"parameters"`
    RequestBody *RequestBody   `yaml:"requestBody"`
    Responses   Map[*Response] `yaml:"responses"`
}

type Parameter struct {
    Ref         string          `yaml:"$ref"`
    Name        string          `yaml:"name"`
    In          string          `yaml:"in"`
    Required    bool            `yaml:"required"`
    Description string          `yaml:"description"`
    Style       string          `yaml:"style"`
    Schema      *Schema         `yaml:"schema"`
    Content     Map[*MediaType] `yaml:"content"`
}

type RequestBody struct {
    Ref         string          `yaml:"$ref"`
    Description string          `yaml:"description"`
    Required    bool            `yaml:"required"`
    Content     Map[*MediaType] `yaml:"content"`
}

type Response struct {
    Ref         string          `yaml:"$ref"`
    Description string          `yaml:"description"`
    Headers     Map[*Header]    `yaml:"headers"`
    Content     Map[*MediaType] `yaml:"content"`
}

type Header struct {
    Ref         string  `yaml:"$ref"`
    Description string  `yaml:"description"`
    Required    bool    `yaml:"required"`
    Schema      *Schema `yaml:"schema"`
}

type MediaType struct {
    Schema *Schema `yaml:"schema"`
}

// Schema is the subset of a JSON schema object the type mapper understands.
type Schema struct {
    Ref                  string                `yaml:"$ref"`
    Type                 string                `yaml:"type"`
    Format               string                `yaml:"format"`
    Description          string                `yaml:"description"`
    Items                *Schema               `yaml:"items"`
    Properties           Map[*Schema]          `yaml:"properties"`
    AdditionalProperties *AdditionalProperties `yaml:"additionalProperties"`
}

// AdditionalProperties is either a boolean or a schema.
type AdditionalProperties struct {
    Allowed bool
    Schema  *Schema
}
