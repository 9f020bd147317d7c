package dto

import "encoding/json"

// ReplaceExtensionFieldsRequest replaces every extension field of an entity.
type ReplaceExtensionFieldsRequest struct {
	Fields map[string]json.RawMessage `json:"fields" validate:"required"`
}

// ExtensionFieldsResponse lists the extension fields of an entity as a JSON object.
type ExtensionFieldsResponse struct {
	Entity   string                     `json:"entity"`
	EntityID string                     `json:"entity_id"`
	Fields   map[string]json.RawMessage `json:"fields"`
}
