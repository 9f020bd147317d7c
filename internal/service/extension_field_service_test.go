package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type extensionRepoStub struct {
	schema *models.ExtensionFieldSchema
	fields map[string][]models.ExtensionField
}

func (r *extensionRepoStub) GetSchema(ctx context.Context, entity string) (*models.ExtensionFieldSchema, error) {
	if r.schema == nil || r.schema.Entity != entity {
		return nil, sql.ErrNoRows
	}
	return r.schema, nil
}

func (r *extensionRepoStub) ListFields(ctx context.Context, entity, entityID string) ([]models.ExtensionField, error) {
	return r.fields[entity+"/"+entityID], nil
}

func (r *extensionRepoStub) ReplaceFields(ctx context.Context, entity, entityID string, fields []models.ExtensionField) error {
	if r.fields == nil {
		r.fields = map[string][]models.ExtensionField{}
	}
	r.fields[entity+"/"+entityID] = fields
	return nil
}

const studentExtensionSchema = `{
  "type": "object",
  "properties": {
    "blood_group": {"type": "string", "enum": ["A+", "B+", "O+", "AB+"]},
    "hostel_room": {"type": "integer", "minimum": 1}
  },
  "additionalProperties": false
}`

func TestExtensionFieldServiceReplaceAndRead(t *testing.T) {
	repo := &extensionRepoStub{schema: &models.ExtensionFieldSchema{Entity: models.ExtensionEntityStudent, Schema: json.RawMessage(studentExtensionSchema)}}
	svc := NewExtensionFieldService(repo, nil)
	ctx := context.Background()

	_, err := svc.Replace(ctx, models.ExtensionEntityStudent, "stu-1", map[string]json.RawMessage{
		"hostel_room": json.RawMessage(`12`),
		"blood_group": json.RawMessage(`"O+"`),
	})
	require.NoError(t, err)

	stored := repo.fields["student/stu-1"]
	require.Len(t, stored, 2)
	assert.Equal(t, "blood_group", stored[0].Key)

	fields, err := svc.Fields(ctx, models.ExtensionEntityStudent, "stu-1")
	require.NoError(t, err)
	assert.JSONEq(t, `12`, string(fields["hostel_room"]))
}

func TestExtensionFieldServiceRejectsInvalidFields(t *testing.T) {
	repo := &extensionRepoStub{schema: &models.ExtensionFieldSchema{Entity: models.ExtensionEntityStudent, Schema: json.RawMessage(studentExtensionSchema)}}
	svc := NewExtensionFieldService(repo, nil)

	_, err := svc.Replace(context.Background(), models.ExtensionEntityStudent, "stu-1", map[string]json.RawMessage{
		"hostel_room": json.RawMessage(`"twelve"`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "/hostel_room", appErr.Details["field"])
	assert.Empty(t, repo.fields)

	_, err = svc.Replace(context.Background(), models.ExtensionEntityStudent, "stu-1", map[string]json.RawMessage{
		"nickname": json.RawMessage(`"Ace"`),
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExtensionFieldServiceRequiresSchema(t *testing.T) {
	svc := NewExtensionFieldService(&extensionRepoStub{}, nil)
	_, err := svc.Replace(context.Background(), models.ExtensionEntityStudent, "stu-1", map[string]json.RawMessage{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
