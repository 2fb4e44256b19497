package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "empresaflow/pkg/domain-errors"
)

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	doc, err := NewDocument().Update(TopicGeneral, Section{"nombre": "A", "rut": "X"})
	require.NoError(t, err)

	next, err := doc.Update(TopicGeneral, Section{"rut": "Y"})
	require.NoError(t, err)

	assert.Equal(t, Section{"nombre": "A", "rut": "Y"}, next.Section(TopicGeneral))
	assert.Equal(t, Section{"nombre": "A", "rut": "X"}, doc.Section(TopicGeneral), "receiver is not mutated")
}

func TestUpdateLeavesSiblingTopicsAlone(t *testing.T) {
	doc, err := NewDocument().Update(TopicContact, Section{"email": "a@b.cl"})
	require.NoError(t, err)
	doc, err = doc.Update(TopicGeneral, Section{"nombre": "Empresa Demo"})
	require.NoError(t, err)

	assert.Equal(t, Section{"email": "a@b.cl"}, doc.Section(TopicContact))
	assert.Equal(t, []Topic{TopicGeneral, TopicContact}, doc.Topics())
}

func TestUpdateReplacesNestedValuesWholesale(t *testing.T) {
	first := []any{map[string]any{"nombre": "Ana", "rut": "1-9"}, map[string]any{"nombre": "Luis"}}
	second := []any{map[string]any{"nombre": "Eva"}}

	doc, err := NewDocument().Update(TopicLegalReps, Section{"representantes": first})
	require.NoError(t, err)
	doc, err = doc.Update(TopicLegalReps, Section{"representantes": second})
	require.NoError(t, err)

	assert.Equal(t, second, doc.Section(TopicLegalReps)["representantes"])
}

func TestUpdateRejectsUnknownTopic(t *testing.T) {
	_, err := NewDocument().Update(Topic("misc"), Section{"a": 1})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSectionReturnsCopy(t *testing.T) {
	doc, err := NewDocument().Update(TopicGeneral, Section{"nombre": "A"})
	require.NoError(t, err)

	s := doc.Section(TopicGeneral)
	s["nombre"] = "B"
	assert.Equal(t, "A", doc.Section(TopicGeneral)["nombre"])
}

func TestDocumentJSONKeepsLooseFields(t *testing.T) {
	raw := `{"datosGenerales":{"nombre":"A","empkey":76123456},"rut_empresa":"76.123.456-7"}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, json.Number("76123456"), doc.Section(TopicGeneral)["empkey"])
	assert.Equal(t, Section{"rut_empresa": "76.123.456-7"}, doc.Loose())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestDocumentJSONRejectsNonObjectSection(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"datosGenerales":"oops"}`), &doc)
	assert.Error(t, err)
}

func TestParsePartial(t *testing.T) {
	t.Run("canonical fields pass", func(t *testing.T) {
		partial, err := ParsePartial(TopicGeneral, []byte(`{"nombre":"Empresa Demo","rut":"12.345.678-5"}`))
		require.NoError(t, err)
		assert.Equal(t, Section{"nombre": "Empresa Demo", "rut": "12.345.678-5"}, partial)
	})

	t.Run("legacy field names are rejected on entry", func(t *testing.T) {
		_, err := ParsePartial(TopicGeneral, []byte(`{"rut_empresa":"12.345.678-5"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("wrong types are rejected", func(t *testing.T) {
		_, err := ParsePartial(TopicGeneral, []byte(`{"empkey":"abc"}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("lists keep their shape", func(t *testing.T) {
		partial, err := ParsePartial(TopicPlatformUsers, []byte(`{"usuarios":[{"nombre":"Ana","email":"ana@demo.cl"}]}`))
		require.NoError(t, err)
		assert.Len(t, partial["usuarios"], 1)
	})
}

func TestPutAndView(t *testing.T) {
	key := int64(12345678)
	doc, err := Put(NewDocument(), GeneralData{Nombre: "Empresa Demo", EmpKey: &key})
	require.NoError(t, err)
	doc, err = Put(doc, GeneralData{RUT: "12.345.678-5"})
	require.NoError(t, err)

	got, err := View[GeneralData](doc)
	require.NoError(t, err)
	assert.Equal(t, "Empresa Demo", got.Nombre)
	assert.Equal(t, "12.345.678-5", got.RUT)
	require.NotNil(t, got.EmpKey)
	assert.Equal(t, key, *got.EmpKey)

	empty, err := View[PlanData](doc)
	require.NoError(t, err)
	assert.Equal(t, PlanData{}, empty)
}
