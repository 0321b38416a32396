package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrNotFound = errors.New("patient extraction not found")

// ExtractionModel is one patient's outcome in one run.
type ExtractionModel struct {
	ID          string            `gorm:"primaryKey;column:id"`
	RunID       string            `gorm:"column:run_id;index"`
	PatientID   string            `gorm:"column:patient_id;index"`
	DisplayName string            `gorm:"column:display_name"`
	Status      string            `gorm:"column:status"`
	Error       string            `gorm:"column:error"`
	Record      datatypes.JSON    `gorm:"column:record"`
	Fields      datatypes.JSONMap `gorm:"column:fields"`
	CreatedAt   time.Time         `gorm:"column:created_at"`
}

func (ExtractionModel) TableName() string {
	return "patient_extractions"
}

type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) AutoMigrate() error {
	return s.db.AutoMigrate(&ExtractionModel{})
}

// SaveRecord stores the full record and its merged fields.
func (s *RecordStore) SaveRecord(ctx context.Context, runID string, rec *models.PatientRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	row := &ExtractionModel{
		ID:          uuid.New().String(),
		RunID:       runID,
		PatientID:   rec.Identifier,
		DisplayName: rec.DisplayName,
		Status:      StatusCompleted,
		Record:      datatypes.JSON(raw),
		Fields:      datatypes.JSONMap(rec.Merged()),
		CreatedAt:   time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *RecordStore) SaveFailure(ctx context.Context, runID, patientID, message string) error {
	row := &ExtractionModel{
		ID:        uuid.New().String(),
		RunID:     runID,
		PatientID: patientID,
		Status:    StatusFailed,
		Error:     message,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// Latest returns the most recent completed extraction of a patient.
func (s *RecordStore) Latest(ctx context.Context, patientID string) (*ExtractionModel, error) {
	var row ExtractionModel
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND status = ?", patientID, StatusCompleted).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LatestRecords loads the most recent completed record of every patient. Patients
// without one are reported in the joined error; the others are still returned.
func (s *RecordStore) LatestRecords(ctx context.Context, patientIDs []string) ([]*models.PatientRecord, error) {
	records := make([]*models.PatientRecord, 0, len(patientIDs))
	var errs []error
	for _, id := range patientIDs {
		row, err := s.Latest(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("patient %s: %w", id, err))
			continue
		}
		rec, err := row.PatientRecord()
		if err != nil {
			errs = append(errs, fmt.Errorf("patient %s: %w", id, err))
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

// PatientRecord decodes the stored record of a completed extraction.
func (m *ExtractionModel) PatientRecord() (*models.PatientRecord, error) {
	if len(m.Record) == 0 {
		return nil, fmt.Errorf("extraction %s has no stored record", m.ID)
	}
	var rec models.PatientRecord
	if err := json.Unmarshal(m.Record, &rec); err != nil {
		return nil, fmt.Errorf("decoding extraction %s: %w", m.ID, err)
	}
	return &rec, nil
}
