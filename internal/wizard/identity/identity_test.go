package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empresaflow/internal/wizard/models"
	dErrors "empresaflow/pkg/domain-errors"
)

func docFrom(t *testing.T, raw string) models.Document {
	t.Helper()
	var doc models.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"12.345.678-5", "12345678-5", true},
		{"12345678-5", "12345678-5", true},
		{"123456785", "12345678-5", true},
		{"7.654.321-k", "7654321-K", true},
		{" 76 123 456 K ", "76123456-K", true},
		{"1", "", false},
		{"RUT: -", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, raw := range []string{"12.345.678-5", "7.654.321-k", "76123456K", "99-9"} {
		once, ok := Normalize(raw)
		require.True(t, ok)
		twice, ok := Normalize(once)
		require.True(t, ok)
		assert.Equal(t, once, twice, raw)
	}
}

func TestLooksLikeTaxID(t *testing.T) {
	assert.True(t, LooksLikeTaxID("12.345.678-5"))
	assert.True(t, LooksLikeTaxID("12345678-K"))
	assert.True(t, LooksLikeTaxID(" 123456785 "))
	assert.False(t, LooksLikeTaxID("12.34.678-5"))
	assert.False(t, LooksLikeTaxID("Av. Apoquindo 3000"))
	assert.False(t, LooksLikeTaxID("contacto@empresa.cl"))
}

func TestDeriveBusinessKey(t *testing.T) {
	key, err := DeriveBusinessKey("12345678-5")
	require.NoError(t, err)
	assert.Equal(t, int64(12345678), key)

	key, err = DeriveBusinessKey("1234567890123-4")
	require.NoError(t, err)
	assert.Equal(t, int64(567890123), key, "keeps the trailing nine digits")
}

func TestDeriveBusinessKeyDropsBodyDigitForKCheckDigit(t *testing.T) {
	key, err := DeriveBusinessKey("12345678-K")
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), key)
}

func TestDeriveBusinessKeyRejectsZero(t *testing.T) {
	_, err := DeriveBusinessKey("0-5")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = DeriveBusinessKey("-K")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestResolveFromGeneralSection(t *testing.T) {
	doc := docFrom(t, `{"datosGenerales": {"rut": "12.345.678-5", "nombre": "Empresa Demo"}}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "12345678-5", id.TaxID)
	assert.Equal(t, int64(12345678), id.BusinessKey)
	assert.Equal(t, "datosGenerales", id.Source)
}

func TestResolvePrefersFirstAlias(t *testing.T) {
	doc := docFrom(t, `{"datosGenerales": {"rut_empresa": "11.111.111-1", "rut": "22.222.222-2"}}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "22222222-2", id.TaxID)
}

func TestResolveFallsBackToTopLevelFields(t *testing.T) {
	doc := docFrom(t, `{"rutEmpresa": "76.123.456-K", "datosGenerales": {"nombre": "Sin RUT"}}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "76123456-K", id.TaxID)
	assert.Equal(t, "document", id.Source)
}

func TestResolveSearchesNestedValues(t *testing.T) {
	doc := docFrom(t, `{
		"datosGenerales": {"nombre": "Empresa Demo", "direccion": "Av. Apoquindo 3000"},
		"representantesLegales": {"representantes": [
			{"nombre": "Ana", "documento": "9.876.543-2"},
			{"nombre": "Luis", "documento": "5.555.555-5"}
		]}
	}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "9876543-2", id.TaxID)
	assert.Equal(t, "search", id.Source)
	assert.Equal(t, int64(9876543), id.BusinessKey)
}

func TestResolveSearchFollowsStepOrder(t *testing.T) {
	doc := docFrom(t, `{
		"informacionPlan": {"referencia": "11.111.111-1"},
		"datosContacto": {"a": "22.222.222-2"}
	}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "22222222-2", id.TaxID)
}

func TestResolveUsesExplicitBusinessKey(t *testing.T) {
	doc := docFrom(t, `{"datosGenerales": {"rut": "12.345.678-5", "empkey": 4242}}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), id.BusinessKey)

	doc = docFrom(t, `{"datosGenerales": {"rut": "12.345.678-5"}, "emp_key": "777"}`)
	id, err = Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(777), id.BusinessKey)

	tests := map[string]int64{
		`12345678901234567`:     12345678901234567,
		`"9223372036854775807"`: 9223372036854775807,
		`"1e3"`:                 1000,
		`42.0`:                  42,
	}
	for raw, want := range tests {
		doc = docFrom(t, `{"datosGenerales": {"rut": "12.345.678-5", "empkey": `+raw+`}}`)
		id, err = Resolve(doc)
		require.NoError(t, err, raw)
		assert.Equal(t, want, id.BusinessKey, raw)
	}
}

func TestResolveRejectsInvalidExplicitBusinessKey(t *testing.T) {
	for _, raw := range []string{
		`"abc"`, `-3`, `0`, `12.5`, `"NaN"`, `"Inf"`,
		`"9223372036854775808"`, `9.3e18`, `-9223372036854775808`,
	} {
		doc := docFrom(t, `{"datosGenerales": {"rut": "12.345.678-5", "empkey": `+raw+`}}`)
		_, err := Resolve(doc)
		require.Error(t, err, raw)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), raw)
	}
}

func TestResolveIgnoresEmptyExplicitBusinessKey(t *testing.T) {
	doc := docFrom(t, `{"datosGenerales": {"rut": "12.345.678-5", "empkey": "  "}}`)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(12345678), id.BusinessKey)
}

func TestResolveWithoutTaxIDFails(t *testing.T) {
	doc := docFrom(t, `{"datosGenerales": {"nombre": "Empresa Demo"}, "datosContacto": {"telefono": "+56 2 2345 6789"}}`)

	_, err := Resolve(doc)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestResolveSurvivesCyclicValues(t *testing.T) {
	inner := map[string]any{"nombre": "loop"}
	inner["self"] = inner
	list := []any{inner}
	list = append(list, list)

	doc, err := models.NewDocument().Update(models.TopicContact, models.Section{"contactos": list})
	require.NoError(t, err)

	_, err = Resolve(doc)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestResolveSearchesSlicesSharingABackingArray(t *testing.T) {
	backing := []any{"sin rut", "12.345.678-5"}
	doc, err := models.NewDocument().Update(models.TopicContact, models.Section{
		"a": backing[:1],
		"b": backing,
	})
	require.NoError(t, err)

	id, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "12345678-5", id.TaxID)
}

func TestDisplayFields(t *testing.T) {
	doc := docFrom(t, `{
		"datosGenerales": {"razon_social": "Empresa Demo SpA", "fantasia": "Demo", "domicilio": "Av. Apoquindo 3000"},
		"datosContacto": {"fono": "+56 2 2345 6789"},
		"correo": "contacto@demo.cl"
	}`)

	f := DisplayFields(doc)
	require.NotNil(t, f.Name)
	assert.Equal(t, "Empresa Demo SpA", *f.Name)
	require.NotNil(t, f.TradeName)
	assert.Equal(t, "Demo", *f.TradeName)
	require.NotNil(t, f.Address)
	assert.Equal(t, "Av. Apoquindo 3000", *f.Address)
	require.NotNil(t, f.Phone)
	assert.Equal(t, "+56 2 2345 6789", *f.Phone)
	require.NotNil(t, f.Email)
	assert.Equal(t, "contacto@demo.cl", *f.Email)
}

func TestDisplayFieldsMissing(t *testing.T) {
	f := DisplayFields(models.NewDocument())
	assert.Nil(t, f.Name)
	assert.Nil(t, f.Email)
}
