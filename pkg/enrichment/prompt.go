package enrichment

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/keyfacts"
)

const instructions = `Eres un químico farmacéutico asistencial experto. Analiza los datos clínicos del paciente y responde con un objeto JSON con exactamente estas claves: %KEYS%.

Reglas:
1. Responde solo con el objeto JSON, sin texto adicional, sin la palabra "json" y sin bloques de código.
2. La respuesta debe empezar con "{" y terminar con "}".
3. Usa indentación de 2 espacios.
4. Si la modalidad no es presencial, "sugerencia_horarios" debe ser una lista vacía [].

Datos clínicos del paciente:
%FACTS%

Contenido de cada clave:
- narrativa_intervencion: texto que empieza con "Se realiza revisión del caso", indica la modalidad (PRESENCIAL o NOTA DE SEGUIMIENTO), la fecha (YYYY-MM-DD), el nombre del QF ("por QF Nombre Apellido") y el contexto (EPP o llamada), y termina con "indicando que:".
- sugerencia_horarios: lista de objetos {"hora": "HH:MM AM/PM", "actividad": "...", "aceptacion": "PACIENTE ACEPTA"}, solo si la modalidad es PRESENCIAL.
- informacion_general: párrafo de 2 o 3 oraciones sobre adherencia, objetivo del TAR, relación VIH-TAR, hábitos saludables, uso de preservativo y derechos y deberes, sin listas ni fechas.
- concepto_qf: texto que empieza con "Acorde a la revisión de la trazabilidad del caso:" y termina con las líneas "Adherencia: [Adherente (95-100%) / No Adherente]" y "Tolerancia: [Buena / ...]".
`

// BuildPrompt embeds the serialized key facts in the fixed instruction template.
// Map keys serialize sorted, so equal facts always give the same prompt.
func BuildPrompt(facts models.Fields) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(facts); err != nil {
		return "", err
	}

	quoted := make([]string, len(keyfacts.EnrichedNames))
	for i, k := range keyfacts.EnrichedNames {
		quoted[i] = `"` + k + `"`
	}

	r := strings.NewReplacer(
		"%KEYS%", strings.Join(quoted, ", "),
		"%FACTS%", strings.TrimSpace(buf.String()),
	)
	return r.Replace(instructions), nil
}
