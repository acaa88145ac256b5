// Package llm abstracts the multimodal model providers used for chart analysis.
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"slices"
)

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool

	// Schema constrains the response to a JSON document of this shape.
	// Providers with native structured output enforce it, the rest get it
	// as instructions. Implies JSONMode.
	Schema     *Schema
	SchemaName string
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
	Images  []Image
}

// Image is an inline image attachment.
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns the image as a data: URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Schema is a provider-neutral JSON schema subset.
type Schema struct {
	Type                 string             `json:"type"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

// Schema types
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// JSON returns the schema document.
func (s *Schema) JSON() json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		// Schema only holds strings, maps and slices.
		panic(err)
	}
	return b
}

// Closed returns a copy where every object forbids extra properties and
// requires all of its properties, as strict structured-output modes expect.
func (s *Schema) Closed() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	if c.Items != nil {
		c.Items = c.Items.Closed()
	}
	if c.Type == TypeObject {
		no := false
		c.AdditionalProperties = &no
		c.Properties = make(map[string]*Schema, len(s.Properties))
		c.Required = make([]string, 0, len(s.Properties))
		for name, p := range s.Properties {
			c.Properties[name] = p.Closed()
			c.Required = append(c.Required, name)
		}
		slices.Sort(c.Required)
	}
	return &c
}
