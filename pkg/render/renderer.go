package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

// Renderer hands one final record to the document step.
type Renderer interface {
	Render(ctx context.Context, rec *models.PatientRecord) error
}

// NopRenderer is used when documents are not wanted.
type NopRenderer struct{}

func (NopRenderer) Render(ctx context.Context, rec *models.PatientRecord) error { return nil }

const defaultTemplate = `INFORME DE SEGUIMIENTO FARMACOTERAPÉUTICO
Fecha de impresión: {{.fecha_impresion}}
Paciente: {{.paciente_nombre}}  {{.tipo_documento_id}} {{.documento_id}}
Sexo: {{.paciente_sexo}}  Edad: {{.paciente_edad}}

Diagnóstico: {{.diagnostico_principal}}
Fecha de diagnóstico: {{.fecha_diagnostico}}  Estadio clínico: {{.estadio_clinico}}
Antecedentes patológicos: {{.antecedentes_patologicos}}
Antecedentes actuales: {{.antecedentes_actuales}}
Otros medicamentos: {{.otros_medicamentos}}
Alergias: {{.alergias}}
Hábitos alimenticios: {{.habitos_alimenticios}}
Hábitos tóxicos: {{.habitos_toxicos}}
Hospitalizaciones recientes: {{.hospitalizaciones_recientes}}
Últimos paraclínicos: {{.fecha_paraclinico}}  CV: {{.cv_paraclinico}}  CD4+: {{.cd4_paraclinico}}

Tratamiento actual:
{{.lista_medicamentos}}

Profilaxis antibiótica: {{.profilaxis_antibiotica}}
Metas terapéuticas: {{.metas_terapeuticas}}
Necesario: {{.medicamento_necesario}}  Efectivo: {{.medicamento_efectivo}}  Seguro: {{.medicamento_seguro}}
Interacciones: {{.interacciones}}
Genotipo: {{.genotipo}}
Dispensación: {{.fecha_dispensacion}} ({{.modalidad_dispensacion}})
Adherencia: {{.adherencia_test}}  Tolerancia: {{.tolerancia_test}}

{{.narrativa_intervencion}}

Horarios sugeridos:
{{.sugerencia_horarios}}

{{.informacion_general}}

{{.concepto_qf}}
`

// TemplateRenderer writes one text document per patient into dir.
type TemplateRenderer struct {
	tmpl *template.Template
	dir  string
	now  func() time.Time
}

// NewTemplateRenderer parses the template at path, or the built-in one when path
// is empty.
func NewTemplateRenderer(path, dir string) (*TemplateRenderer, error) {
	tmpl := template.New("document").Option("missingkey=zero")
	var err error
	if path == "" {
		tmpl, err = tmpl.Parse(defaultTemplate)
	} else {
		var content []byte
		content, err = os.ReadFile(filepath.Clean(path))
		if err == nil {
			tmpl, err = tmpl.Parse(string(content))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("loading report template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl, dir: dir, now: time.Now}, nil
}

func (r *TemplateRenderer) Render(ctx context.Context, rec *models.PatientRecord) error {
	return r.RenderFields(DocumentName(rec), Flatten(rec, r.now()))
}

// RenderFields writes <dir>/<name>.txt from an already flattened field map.
func (r *TemplateRenderer) RenderFields(name string, fields map[string]string) error {
	if clean := safeName(name); clean != name || clean == "" {
		return fmt.Errorf("invalid document name %q", name)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(r.dir, name+".txt")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.tmpl.Execute(f, fields); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Log.WithField("path", path).Info("Document rendered")
	return nil
}
