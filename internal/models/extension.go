package models

import (
	"encoding/json"
	"time"
)

// ExtensionEntityStudent names the student entity in extension field tables.
const ExtensionEntityStudent = "student"

// ExtensionFieldSchema is the admin-maintained JSON Schema for an entity's extension fields.
type ExtensionFieldSchema struct {
	Entity    string          `db:"entity" json:"entity"`
	Schema    json.RawMessage `db:"schema" json:"schema"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ExtensionField is one typed key/value owned by an entity.
type ExtensionField struct {
	Entity    string          `db:"entity" json:"-"`
	EntityID  string          `db:"entity_id" json:"-"`
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
