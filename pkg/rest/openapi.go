package rest

import (
	"github.com/schemafield/schemafield/pkg/adapter"
)

const jsonMediaType = "application/json"

// MediaType describes one request or response content type.
type MediaType struct {
	Schema map[string]any `json:"schema"`
}

// RequestBody describes an operation's request payload.
type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

// Response describes one operation response.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Operation is an OpenAPI operation derived from parser and renderer
// schemas.
type Operation struct {
	OperationID string           `json:"operationId"`
	Summary     string           `json:"summary,omitempty"`
	RequestBody *RequestBody     `json:"requestBody,omitempty"`
	Responses   map[int]Response `json:"responses"`
}

// OperationFor builds an operation description from the request and response
// adapters. Either adapter may be nil when that side carries no schema.
func OperationFor(id string, request, response *adapter.SchemaAdapter) (*Operation, error) {
	op := &Operation{
		OperationID: id,
		Responses:   map[int]Response{},
	}
	if request != nil {
		doc, err := request.JSONSchema()
		if err != nil {
			return nil, err
		}
		op.RequestBody = &RequestBody{
			Required: true,
			Content:  map[string]MediaType{jsonMediaType: {Schema: doc}},
		}
	}
	if response != nil {
		doc, err := response.JSONSchema()
		if err != nil {
			return nil, err
		}
		op.Responses[200] = Response{
			Description: "successful response",
			Content:     map[string]MediaType{jsonMediaType: {Schema: doc}},
		}
	} else {
		op.Responses[204] = Response{Description: "no content"}
	}
	return op, nil
}
