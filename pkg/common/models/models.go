package models

import (
	"time"
)

// ProfessionalKind classifies an encounter by the professional who recorded it.
type ProfessionalKind string

const (
	KindMedical         ProfessionalKind = "medical"
	KindPharmacological ProfessionalKind = "pharmacological"
	KindUnclassified    ProfessionalKind = "unclassified"
)

// Sections maps a section title to its canonical field labels and values.
type Sections map[string]map[string]string

// Get returns the value stored under section/label, or def when either is absent.
func (s Sections) Get(section, label, def string) string {
	fields, ok := s[section]
	if !ok {
		return def
	}
	value, ok := fields[label]
	if !ok {
		return def
	}
	return value
}

type Encounter struct {
	Activity     string   `json:"activity"`
	SubActivity  string   `json:"sub_activity"`
	Professional string   `json:"professional"`
	DateTime     string   `json:"date_time"`
	Sections     Sections `json:"sections"`
}

type Order struct {
	Date        string `json:"date"`
	Code        string `json:"code"`
	Service     string `json:"service"`
	Status      string `json:"status"`
	Provider    string `json:"provider"`
	ActiveFrom  string `json:"active_from"`
	ActiveUntil string `json:"active_until"`
}

type Prescription struct {
	Date       string `json:"date"`
	Medication string `json:"medication"`
	Quantity   string `json:"quantity"`
	Status     string `json:"status"`
}

type Plan struct {
	Orders        []Order        `json:"orders"`
	Prescriptions []Prescription `json:"prescriptions"`
}

// Fields is the flat key-fact / enriched-field mapping handed between stages.
type Fields map[string]interface{}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the value under key as a string, or "" when absent or not a string.
func (f Fields) String(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

type PatientRecord struct {
	Identifier     string                           `json:"identifier"`
	DisplayName    string                           `json:"display_name"`
	Encounters     map[ProfessionalKind][]Encounter `json:"encounters"`
	Plan           Plan                             `json:"plan"`
	KeyFacts       Fields                           `json:"key_facts"`
	EnrichedFields Fields                           `json:"enriched_fields"`
	Warnings       []string                         `json:"warnings,omitempty"`
}

func NewPatientRecord(identifier, displayName string) *PatientRecord {
	return &PatientRecord{
		Identifier:  identifier,
		DisplayName: displayName,
		Encounters: map[ProfessionalKind][]Encounter{
			KindMedical:         {},
			KindPharmacological: {},
		},
		Plan: Plan{
			Orders:        []Order{},
			Prescriptions: []Prescription{},
		},
		KeyFacts:       Fields{},
		EnrichedFields: Fields{},
	}
}

// Merged overlays EnrichedFields on KeyFacts; enriched values win on key collisions.
func (r *PatientRecord) Merged() Fields {
	out := make(Fields, len(r.KeyFacts)+len(r.EnrichedFields))
	for k, v := range r.KeyFacts {
		out[k] = v
	}
	for k, v := range r.EnrichedFields {
		out[k] = v
	}
	return out
}

func (r *PatientRecord) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Event bus envelope
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
