// internal/validator/schema.go
package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Verdict classifies a structured payload.
type Verdict string

const (
	VerdictValid   Verdict = "VALID"
	VerdictEmpty   Verdict = "EMPTY"   // well-formed, required collection empty
	VerdictInvalid Verdict = "INVALID" // shape wrong
)

// PayloadValidator applies a compiled JSON schema gate to structured
// provider payloads. Pure CPU work, no I/O.
type PayloadValidator struct {
	schema *gojsonschema.Schema
}

func NewPayloadValidator(schemaSource string) (*PayloadValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaSource))
	if err != nil {
		return nil, fmt.Errorf("compiling payload schema: %w", err)
	}
	return &PayloadValidator{schema: schema}, nil
}

// Validate returns the verdict and, for INVALID, a joined description of
// the schema violations.
func (v *PayloadValidator) Validate(raw []byte) (Verdict, string) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return VerdictInvalid, "payload is not valid JSON"
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return VerdictInvalid, strings.Join(details, "; ")
	}

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return VerdictInvalid, err.Error()
	}
	if envelope.Status != "ok" {
		return VerdictEmpty, ""
	}
	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Data, &items); err != nil || len(items) == 0 {
		return VerdictEmpty, ""
	}
	return VerdictValid, ""
}
