package spec

import (
    "bytes"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"

    "gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
    InputError           ErrorCode = "InputError"
    DecodeError          ErrorCode = "DecodeError"
    UnsupportedExtension ErrorCode = "UnsupportedExtension"
    UnsupportedVersion   ErrorCode = "UnsupportedVersion"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
    Code        ErrorCode
    Message     string
    Location    string // file path
    JSONPointer string // e.g. "#/openapi"
    Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Load reads the document at path and decodes it according to its
// extension: ".json" as JSON, ".yaml" and ".yml" as YAML.
func Load(path string) (*Document, error) {
    if strings.TrimSpace(path) == "" {
        return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
    }

    ext := strings.ToLower(filepath.Ext(path))
    var decode func([]byte) (*Document, error)
    switch ext {
    case ".json":
        decode = DecodeJSON
    case ".yaml", ".yml":
        decode = DecodeYAML
    default:
        return nil, &SpecError{
            Code:     UnsupportedExtension,
            Message:  fmt.Sprintf("spec: unsupported file extension %q (expected .json, .yaml or .yml)", ext),
            Location: path,
        }
    }

    raw, err := os.ReadFile(path)
    if err != nil {
        return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", path, err), Location: path, Cause: err}
    }

    doc, err := decode(raw)
    if err != nil {
        var se *SpecError
        if errors.As(err, &se) {
            se.Location = path
        }
        return nil, err
    }
    return doc, nil
}

// DecodeYAML decodes a YAML document.
func DecodeYAML(data []byte) (*Document, error) {
    var doc Document
    if err := yaml.Unmarshal(data, &doc); err != nil {
        return nil, &SpecError{Code: DecodeError, Message: fmt.Sprintf("spec: decode yaml: %v", err), Cause: err}
    }
    return checkVersion(&doc)
}

// DecodeJSON decodes a JSON document. The JSON is first converted into a
// YAML node tree so that object key order survives into the Document.
func DecodeJSON(data []byte) (*Document, error) {
    node, err := jsonToNode(data)
    if err != nil {
        return nil, &SpecError{Code: DecodeError, Message: fmt.Sprintf("spec: decode json: %v", err), Cause: err}
    }
    var doc Document
    if err := node.Decode(&doc); err != nil {
        return nil, &SpecError{Code: DecodeError, Message: fmt.Sprintf("spec: decode json: %v", err), Cause: err}
    }
    return checkVersion(&doc)
}

func checkVersion(doc *Document) (*Document, error) {
    v := strings.TrimSpace(doc.OpenAPI)
    switch {
    case strings.HasPrefix(v, "3."):
        return doc, nil
    case v == "" && strings.TrimSpace(doc.Swagger) != "":
        return nil, &SpecError{
            Code:        UnsupportedVersion,
            Message:     fmt.Sprintf("spec: swagger %s documents are not supported (expected 'openapi: 3.x')", strings.TrimSpace(doc.Swagger)),
            JSONPointer: "#/swagger",
        }
    case v == "":
        return nil, &SpecError{Code: UnsupportedVersion, Message: "spec: missing version (expected 'openapi: 3.x')", JSONPointer: "#/openapi"}
    default:
        return nil, &SpecError{Code: UnsupportedVersion, Message: fmt.Sprintf("spec: unsupported openapi version %q (expected 3.x)", v), JSONPointer: "#/openapi"}
    }
}

func jsonToNode(data []byte) (*yaml.Node, error) {
    dec := json.NewDecoder(bytes.NewReader(data))
    dec.UseNumber()
    node, err := jsonValue(dec)
    if err != nil {
        return nil, err
    }
    if _, err := dec.Token(); err != io.EOF {
        return nil, errors.New("unexpected data after top-level value")
    }
    return node, nil
}

func jsonValue(dec *json.Decoder) (*yaml.Node, error) {
    tok, err := dec.Token()
    if err != nil {
        if err == io.EOF {
            return nil, io.ErrUnexpectedEOF
        }
        return nil, err
    }
    switch v := tok.(type) {
    case json.Delim:
        switch v {
        case '{':
            n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
            for dec.More() {
                kt, err := dec.Token()
                if err != nil {
                    return nil, err
                }
                key, ok := kt.(string)
                if !ok {
                    return nil, fmt.Errorf("object key %v is not a string", kt)
                }
                val, err := jsonValue(dec)
                if err != nil {
                    return nil, fmt.Errorf("%s: %w", key, err)
                }
                n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
            }
            if _, err := dec.Token(); err != nil {
                return nil, err
            }
            return n, nil
        case '[':
            n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
            for dec.More() {
                val, err := jsonValue(dec)
                if err != nil {
                    return nil, err
                }
                n.Content = append(n.Content, val)
            }
            if _, err := dec.Token(); err != nil {
                return nil, err
            }
            return n, nil
        default:
            return nil, fmt.Errorf("unexpected delimiter %q", v)
        }
    case string:
        return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: v}, nil
    case json.Number:
        tag := "!!int"
        if strings.ContainsAny(v.String(), ".eE") {
            tag = "!!float"
        }
        return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}, nil
    case bool:
        value := "false"
        if v {
            value = "true"
        }
        return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value}, nil
    case nil:
        return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
    default:
        return nil, fmt.Errorf("unexpected token %v", tok)
    }
}
