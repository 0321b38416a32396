package navigator

import "fmt"

// Selectors locates every control the navigator touches in the source UI.
type Selectors struct {
	LoginPath      string
	Email          string
	Password       string
	Submit         string
	Desk           string
	SearchInput    string
	SearchResult   string // %s: patient identifier
	PatientPath    string
	PatientHeader  string
	HistoryTab     string
	HistoryTable   string
	HistoryRows    string
	DetailButton   string // %d: 1-based row index
	Modal          string
	ModalClose     string
	EmergencyClose string
	PlanTab        string
	PlanTables     string
}

func DefaultSelectors() Selectors {
	const modal = `//div[contains(@class,'filament-modal-window') and .//h2[contains(text(),'Vista de Encuentro')]]`
	const rows = `//div[@*[name()='wire:sortable']]/div[@*[name()='wire:key']]`
	return Selectors{
		LoginPath:      "/login",
		Email:          "#email",
		Password:       "#password",
		Submit:         `//button[@type='submit']`,
		Desk:           `//h1[contains(text(),'Escritorio')]`,
		SearchInput:    `//input[@id='globalSearchInput']`,
		SearchResult:   `//div[contains(@class,'filament-global-search-results-container')]//a[contains(., 'CC-%s')]`,
		PatientPath:    "/patients/",
		PatientHeader:  "h1.filament-header-heading",
		HistoryTab:     `//button[contains(., 'Historia Clínica')] | //a[contains(., 'Historia Clínica')]`,
		HistoryTable:   "div.filament-tables-table-container",
		HistoryRows:    rows,
		DetailButton:   "(" + rows + ")[%d]//button[contains(., 'Vista')]",
		Modal:          modal,
		ModalClose:     modal + `//button[span[contains(text(),'Cerrar')]]`,
		EmergencyClose: `//button[span[contains(text(),'Cerrar')]]`,
		PlanTab:        `//button[contains(., 'Plan de manejo')] | //a[contains(., 'Plan de manejo')]`,
		PlanTables:     "div.filament-tables-container",
	}
}

func (s Selectors) SearchResultFor(patientID string) string {
	return fmt.Sprintf(s.SearchResult, patientID)
}

func (s Selectors) DetailButtonFor(row int) string {
	return fmt.Sprintf(s.DetailButton, row)
}
