package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type extensionRepository interface {
	GetSchema(ctx context.Context, entity string) (*models.ExtensionFieldSchema, error)
	ListFields(ctx context.Context, entity, entityID string) ([]models.ExtensionField, error)
	ReplaceFields(ctx context.Context, entity, entityID string, fields []models.ExtensionField) error
}

// ExtensionFieldService stores admin-defined fields of an entity, validated against
// the JSON Schema configured for that entity.
type ExtensionFieldService struct {
	repo   extensionRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewExtensionFieldService constructs the service.
func NewExtensionFieldService(repo extensionRepository, logger *zap.Logger) *ExtensionFieldService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtensionFieldService{repo: repo, logger: logger, now: time.Now}
}

// Fields returns the entity's extension fields keyed by name.
func (s *ExtensionFieldService) Fields(ctx context.Context, entity, entityID string) (map[string]json.RawMessage, error) {
	fields, err := s.repo.ListFields(ctx, entity, entityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extension fields")
	}
	result := make(map[string]json.RawMessage, len(fields))
	for _, field := range fields {
		result[field.Key] = field.Value
	}
	return result, nil
}

// Replace validates the full field set against the entity schema and stores it.
func (s *ExtensionFieldService) Replace(ctx context.Context, entity, entityID string, values map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if strings.TrimSpace(entityID) == "" {
		return nil, appErrors.Validation("entity id is required")
	}
	schema, err := s.compileSchema(ctx, entity)
	if err != nil {
		return nil, err
	}

	document, err := json.Marshal(values)
	if err != nil {
		return nil, appErrors.Validation("extension fields must be valid JSON")
	}
	var decoded interface{}
	if err := json.Unmarshal(document, &decoded); err != nil {
		return nil, appErrors.Validation("extension fields must be valid JSON")
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, schemaValidationError(err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	now := s.now().UTC()
	fields := make([]models.ExtensionField, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, models.ExtensionField{Entity: entity, EntityID: entityID, Key: key, Value: values[key], UpdatedAt: now})
	}
	if err := s.repo.ReplaceFields(ctx, entity, entityID, fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store extension fields")
	}
	s.logger.Info("extension fields replaced", zap.String("entity", entity), zap.String("entity_id", entityID), zap.Int("fields", len(fields)))
	return values, nil
}

func (s *ExtensionFieldService) compileSchema(ctx context.Context, entity string) (*jsonschema.Schema, error) {
	stored, err := s.repo.GetSchema(ctx, entity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no extension field schema configured for %s", entity))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extension field schema")
	}
	url := entity + "-extension.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(stored.Schema)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid extension field schema")
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid extension field schema")
	}
	return schema, nil
}

func schemaValidationError(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return appErrors.Validation(err.Error())
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	appErr := appErrors.Validation(fmt.Sprintf("extension field %s: %s", location, leaf.Message))
	appErr.Details = map[string]string{"field": location}
	return appErr
}
