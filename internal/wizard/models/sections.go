package models

import (
	"bytes"
	"encoding/json"

	dErrors "empresaflow/pkg/domain-errors"
)

// TopicData is the canonical schema of one section.
type TopicData interface {
	Topic() Topic
}

// GeneralData is the company identity section.
type GeneralData struct {
	Nombre         string `json:"nombre,omitempty"`
	NombreFantasia string `json:"nombre_fantasia,omitempty"`
	RUT            string `json:"rut,omitempty"`
	EmpKey         *int64 `json:"empkey,omitempty"`
	Giro           string `json:"giro,omitempty"`
	Direccion      string `json:"direccion,omitempty"`
	Comuna         string `json:"comuna,omitempty"`
	Ciudad         string `json:"ciudad,omitempty"`
}

func (GeneralData) Topic() Topic { return TopicGeneral }

// ContactData holds the company's contact channels.
type ContactData struct {
	Telefono       string `json:"telefono,omitempty"`
	Email          string `json:"email,omitempty"`
	NombreContacto string `json:"nombre_contacto,omitempty"`
	CargoContacto  string `json:"cargo_contacto,omitempty"`
	SitioWeb       string `json:"sitio_web,omitempty"`
}

func (ContactData) Topic() Topic { return TopicContact }

type EconomicActivity struct {
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion,omitempty"`
	Principal   bool   `json:"principal,omitempty"`
}

type ActivitiesData struct {
	Actividades []EconomicActivity `json:"actividades,omitempty"`
}

func (ActivitiesData) Topic() Topic { return TopicActivities }

type LegalRepresentative struct {
	Nombre string `json:"nombre"`
	RUT    string `json:"rut,omitempty"`
	Email  string `json:"email,omitempty"`
	Cargo  string `json:"cargo,omitempty"`
}

type LegalRepsData struct {
	Representantes []LegalRepresentative `json:"representantes,omitempty"`
}

func (LegalRepsData) Topic() Topic { return TopicLegalReps }

type TaxDocument struct {
	Tipo       string `json:"tipo"`
	Habilitado bool   `json:"habilitado"`
	Folios     int    `json:"folios,omitempty"`
}

type TaxDocumentsData struct {
	Documentos []TaxDocument `json:"documentos,omitempty"`
}

func (TaxDocumentsData) Topic() Topic { return TopicTaxDocuments }

type Counterpart struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email,omitempty"`
	Telefono string `json:"telefono,omitempty"`
	Rol      string `json:"rol,omitempty"`
}

type CounterpartsData struct {
	Contrapartes []Counterpart `json:"contrapartes,omitempty"`
}

func (CounterpartsData) Topic() Topic { return TopicCounterparts }

type PlatformUser struct {
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Perfil string `json:"perfil,omitempty"`
}

type PlatformUsersData struct {
	Usuarios []PlatformUser `json:"usuarios,omitempty"`
}

func (PlatformUsersData) Topic() Topic { return TopicPlatformUsers }

type NotificationsData struct {
	Canales            []string `json:"canales,omitempty"`
	EmailsCopia        []string `json:"emails_copia,omitempty"`
	Frecuencia         string   `json:"frecuencia,omitempty"`
	AlertasVencimiento *bool    `json:"alertas_vencimiento,omitempty"`
}

func (NotificationsData) Topic() Topic { return TopicNotifications }

type PlanData struct {
	Plan        string  `json:"plan,omitempty"`
	Modalidad   string  `json:"modalidad,omitempty"`
	ValorUF     float64 `json:"valor_uf,omitempty"`
	FechaInicio string  `json:"fecha_inicio,omitempty"`
	Observacion string  `json:"observacion,omitempty"`
}

func (PlanData) Topic() Topic { return TopicPlan }

func schemaFor(t Topic) TopicData {
	switch t {
	case TopicGeneral:
		return &GeneralData{}
	case TopicContact:
		return &ContactData{}
	case TopicActivities:
		return &ActivitiesData{}
	case TopicLegalReps:
		return &LegalRepsData{}
	case TopicTaxDocuments:
		return &TaxDocumentsData{}
	case TopicCounterparts:
		return &CounterpartsData{}
	case TopicPlatformUsers:
		return &PlatformUsersData{}
	case TopicNotifications:
		return &NotificationsData{}
	case TopicPlan:
		return &PlanData{}
	}
	return nil
}

// ParsePartial checks raw against the topic's canonical schema (field names and
// types) and returns the keys it carries, ready for Document.Update.
func ParsePartial(t Topic, raw []byte) (Section, error) {
	schema := schemaFor(t)
	if schema == nil {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown section %q", t)
	}
	strict := json.NewDecoder(bytes.NewReader(raw))
	strict.DisallowUnknownFields()
	if err := strict.Decode(schema); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "section "+string(t)+" does not match its schema")
	}

	var partial Section
	if err := decodeUseNumber(raw, &partial); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "section must be a JSON object")
	}
	if partial == nil {
		partial = Section{}
	}
	return partial, nil
}

// Put merges the non-empty fields of v into its topic.
func Put[T TopicData](d Document, v T) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return d, err
	}
	var partial Section
	if err := decodeUseNumber(raw, &partial); err != nil {
		return d, err
	}
	return d.Update(v.Topic(), partial)
}

// View decodes a topic into its canonical schema. Fields under legacy names
// are ignored; see the identity package for tolerant lookups.
func View[T TopicData](d Document) (T, error) {
	var out T
	s, ok := d.sections[out.Topic()]
	if !ok {
		return out, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
