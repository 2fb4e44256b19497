package models

import (
	dErrors "empresaflow/pkg/domain-errors"
)

// Topic names the section of the company document a step writes.
type Topic string

const (
	TopicGeneral       Topic = "datosGenerales"
	TopicContact       Topic = "datosContacto"
	TopicActivities    Topic = "actividadesEconomicas"
	TopicLegalReps     Topic = "representantesLegales"
	TopicTaxDocuments  Topic = "documentosTributarios"
	TopicCounterparts  Topic = "contrapartes"
	TopicPlatformUsers Topic = "usuariosPlataforma"
	TopicNotifications Topic = "configuracionNotificaciones"
	TopicPlan          Topic = "informacionPlan"
)

// Step is one screen of the new-company wizard.
type Step struct {
	Topic Topic  `json:"topic"`
	Title string `json:"title"`
}

// Steps is the fixed wizard order. The last step submits instead of advancing.
var Steps = []Step{
	{Topic: TopicGeneral, Title: "Datos generales"},
	{Topic: TopicContact, Title: "Datos de contacto"},
	{Topic: TopicActivities, Title: "Actividades económicas"},
	{Topic: TopicLegalReps, Title: "Representantes legales"},
	{Topic: TopicTaxDocuments, Title: "Documentos tributarios"},
	{Topic: TopicCounterparts, Title: "Contrapartes"},
	{Topic: TopicPlatformUsers, Title: "Usuarios de plataforma"},
	{Topic: TopicNotifications, Title: "Configuración de notificaciones"},
	{Topic: TopicPlan, Title: "Información del plan"},
}

// StepCount is the number of wizard steps.
var StepCount = len(Steps)

// ParseTopic validates a topic name from the wire.
func ParseTopic(s string) (Topic, error) {
	t := Topic(s)
	if t.Index() < 0 {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown section %q", s)
	}
	return t, nil
}

// Index returns the step position of t, or -1.
func (t Topic) Index() int {
	for i, s := range Steps {
		if s.Topic == t {
			return i
		}
	}
	return -1
}
