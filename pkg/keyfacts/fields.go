package keyfacts

// Version identifies the key set below. Downstream renderers depend on it.
const Version = "v1"

const (
	NombrePaciente             = "nombre_paciente"
	DiagnosticoPrincipal       = "diagnostico_principal"
	PacienteSexo               = "paciente_sexo"
	PacienteEdad               = "paciente_edad"
	FechaDiagnostico           = "fecha_diagnostico"
	EstadioClinico             = "estadio_clinico"
	AntecedentesPatologicos    = "antecedentes_patologicos"
	AntecedentesActuales       = "antecedentes_actuales"
	OtrosMedicamentos          = "otros_medicamentos"
	Alergias                   = "alergias"
	HabitosAlimenticios        = "habitos_alimenticios"
	HabitosToxicos             = "habitos_toxicos"
	HospitalizacionesRecientes = "hospitalizaciones_recientes"
	FechaParaclinico           = "fecha_paraclinico"
	CVParaclinico              = "cv_paraclinico"
	CD4Paraclinico             = "cd4_paraclinico"
	ListaMedicamentos          = "lista_medicamentos"
	ProfilaxisAntibiotica      = "profilaxis_antibiotica"
	MetasTerapeuticas          = "metas_terapeuticas"
	MedicamentoNecesario       = "medicamento_necesario"
	MedicamentoEfectivo        = "medicamento_efectivo"
	MedicamentoSeguro          = "medicamento_seguro"
	Interacciones              = "interacciones"
	Genotipo                   = "genotipo"
	FechaDispensacion          = "fecha_dispensacion"
	ModalidadDispensacion      = "modalidad_dispensacion"
	AdherenciaTest             = "adherencia_test"
	ToleranciaTest             = "tolerancia_test"
	TipoIntervencion           = "tipo_intervencion"
	ModalidadIntervencion      = "modalidad_intervencion"

	// Produced by the enrichment step.
	NarrativaIntervencion = "narrativa_intervencion"
	SugerenciaHorarios    = "sugerencia_horarios"
	InformacionGeneral    = "informacion_general"
	ConceptoQF            = "concepto_qf"
)

// FieldNames lists every key of the v1 contract in rendering order.
var FieldNames = []string{
	NombrePaciente,
	DiagnosticoPrincipal,
	PacienteSexo,
	PacienteEdad,
	FechaDiagnostico,
	EstadioClinico,
	AntecedentesPatologicos,
	AntecedentesActuales,
	OtrosMedicamentos,
	Alergias,
	HabitosAlimenticios,
	HabitosToxicos,
	HospitalizacionesRecientes,
	FechaParaclinico,
	CVParaclinico,
	CD4Paraclinico,
	ListaMedicamentos,
	ProfilaxisAntibiotica,
	MetasTerapeuticas,
	MedicamentoNecesario,
	MedicamentoEfectivo,
	MedicamentoSeguro,
	Interacciones,
	Genotipo,
	FechaDispensacion,
	ModalidadDispensacion,
	AdherenciaTest,
	ToleranciaTest,
	TipoIntervencion,
	ModalidadIntervencion,
	NarrativaIntervencion,
	SugerenciaHorarios,
	InformacionGeneral,
	ConceptoQF,
}

// EnrichedNames are the keys the inference service is asked to produce.
var EnrichedNames = []string{
	NarrativaIntervencion,
	SugerenciaHorarios,
	InformacionGeneral,
	ConceptoQF,
}

// Schedule is one suggested dosing time.
type Schedule struct {
	Hora       string `json:"hora"`
	Actividad  string `json:"actividad,omitempty"`
	Aceptacion string `json:"aceptacion,omitempty"`
}
