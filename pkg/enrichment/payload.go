package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/keyfacts"
)

var (
	// ErrInvocation marks a failed call to the inference service.
	ErrInvocation = errors.New("enrichment invocation failed")
	// ErrParse marks a response without a parseable JSON object.
	ErrParse = errors.New("enrichment response not parseable")
)

const (
	generationError = "Error en la generación de datos."
	parseErrorQF    = "Error al parsear la respuesta de la IA. Respuesta completa: "
	// TotalFailureQF is stored in concepto_qf when the service could not be invoked.
	TotalFailureQF = "FALLO TOTAL: Error al generar y fusionar campos con IA."
)

// ExtractJSON returns the text from the first '{' to the last '}' inclusive.
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParsePayload extracts and decodes the JSON object embedded in a model response.
// Expected keys the model left out are filled with their defaults.
func ParsePayload(text string) (models.Fields, error) {
	fragment, ok := ExtractJSON(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrParse)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(fragment), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return normalize(models.Fields(raw)), nil
}

// FallbackPayload stands in for a response that could not be parsed. It keeps an
// excerpt of the raw text for later review.
func FallbackPayload(raw string, maxChars int) models.Fields {
	return models.Fields{
		keyfacts.NarrativaIntervencion: generationError,
		keyfacts.SugerenciaHorarios:    []keyfacts.Schedule{},
		keyfacts.InformacionGeneral:    generationError,
		keyfacts.ConceptoQF:            parseErrorQF + truncate(strings.TrimSpace(raw), maxChars),
	}
}

// FailurePayload stands in when the inference service could not be reached.
func FailurePayload() models.Fields {
	return models.Fields{
		keyfacts.NarrativaIntervencion: "",
		keyfacts.SugerenciaHorarios:    []keyfacts.Schedule{},
		keyfacts.InformacionGeneral:    "",
		keyfacts.ConceptoQF:            TotalFailureQF,
	}
}

// Truncate shortens every string value longer than maxChars runes in place.
func Truncate(fields models.Fields, maxChars int) models.Fields {
	if maxChars <= 0 {
		return fields
	}
	for k, v := range fields {
		if s, ok := v.(string); ok {
			fields[k] = truncate(s, maxChars)
		}
	}
	return fields
}

// Merge overlays enriched on keyFacts. Enriched values replace same-named facts.
func Merge(keyFacts, enriched models.Fields) models.Fields {
	out := keyFacts.Clone()
	for k, v := range enriched {
		out[k] = v
	}
	return out
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

// normalize fills missing enriched keys and coerces the model's values to the
// types the document contract expects: text fields become strings (null is ""),
// the schedule becomes a list.
func normalize(fields models.Fields) models.Fields {
	for _, key := range keyfacts.EnrichedNames {
		if key == keyfacts.SugerenciaHorarios {
			continue
		}
		fields[key] = textOf(fields[key])
	}
	fields[keyfacts.SugerenciaHorarios] = schedules(fields[keyfacts.SugerenciaHorarios])
	return fields
}

// textOf renders scalars with stringOf and nested values as compact JSON.
func textOf(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return stringOf(v)
	}
}

// schedules coerces the decoded schedule list; entries without an hour are dropped.
func schedules(v interface{}) []keyfacts.Schedule {
	out := []keyfacts.Schedule{}
	switch list := v.(type) {
	case []keyfacts.Schedule:
		return list
	case []interface{}:
		for _, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			s := keyfacts.Schedule{
				Hora:       stringOf(m["hora"]),
				Actividad:  stringOf(m["actividad"]),
				Aceptacion: stringOf(m["aceptacion"]),
			}
			if s.Hora == "" {
				continue
			}
			out = append(out, s)
		}
	}
	return out
}

func stringOf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
