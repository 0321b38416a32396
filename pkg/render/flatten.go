// Package render turns final patient records into documents: either directly from
// a text template or by handing the flattened fields to a render worker over Kafka.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/keyfacts"
)

// ContractVersion is the version of the flattened key set below.
const ContractVersion = keyfacts.Version

const (
	KeyPatientName  = "paciente_nombre"
	KeyDocumentType = "tipo_documento_id"
	KeyDocumentID   = "documento_id"
	KeyPrintDate    = "fecha_impresion"
)

// Flatten string-coerces every contract field of the merged record. Lists become
// newline-separated lines; schedules render as "hora: aceptacion".
func Flatten(rec *models.PatientRecord, now time.Time) map[string]string {
	merged := rec.Merged()
	out := make(map[string]string, len(keyfacts.FieldNames)+4)
	for _, name := range keyfacts.FieldNames {
		out[name] = coerce(merged[name])
	}
	out[KeyPatientName] = rec.DisplayName
	out[KeyDocumentType] = "CC"
	out[KeyDocumentID] = rec.Identifier
	out[KeyPrintDate] = now.Format("02/01/2006")
	return out
}

// DocumentName is "<display name>_<identifier>" with path separators removed.
func DocumentName(rec *models.PatientRecord) string {
	return safeName(rec.DisplayName) + "_" + safeName(rec.Identifier)
}

// safeName strips path separators and NUL from a document name so it always
// resolves inside the output directory. Names reduced to nothing, "." or ".."
// come back empty.
func safeName(name string) string {
	name = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return -1
		}
		return r
	}, name))
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func coerce(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, "\n")
	case []keyfacts.Schedule:
		lines := make([]string, len(val))
		for i, s := range val {
			lines[i] = s.Hora + ": " + s.Aceptacion
		}
		return strings.Join(lines, "\n")
	case []interface{}:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]interface{}); ok {
				lines = append(lines, coerce(m["hora"])+": "+coerce(m["aceptacion"]))
				continue
			}
			lines = append(lines, coerce(item))
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", val)
	}
}
