package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

func TestWriteJSONIndentsAndKeepsUnicode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examples", "resultados.json")
	rec := models.NewPatientRecord("123", "José Núñez")
	rec.KeyFacts["alergias"] = "No refiere <ninguna>"

	if err := WriteJSON(path, []*models.PatientRecord{rec}); err != nil {
		t.Fatalf("write: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "José Núñez") || !strings.Contains(text, "<ninguna>") {
		t.Fatalf("text must not be escaped:\n%s", text)
	}
	if !strings.Contains(text, "\n    {\n        \"identifier\": \"123\"") {
		t.Fatalf("expected four-space indentation:\n%s", text)
	}

	back, err := ReadJSON(path)
	if err != nil || len(back) != 1 || back[0].DisplayName != "José Núñez" {
		t.Fatalf("round trip failed: %v %+v", err, back)
	}
}

func TestWriteJSONEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	content, _ := os.ReadFile(path)
	if strings.TrimSpace(string(content)) != "[]" {
		t.Fatalf("expected empty array, got %q", content)
	}
}
