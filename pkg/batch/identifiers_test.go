package batch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMergesArgsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	content := "# lote de marzo\n1020304050\nCC-555666777  # remitido\n\n1020304050\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ids, err := Load([]string{"42, 1020304050"}, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"42", "1020304050", "555666777"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	cases := [][]string{
		{"12a4"},
		{"1234567890123456"},
		{" ", ""},
	}
	for _, c := range cases {
		if _, err := Normalize(c); !IsValidationError(err) {
			t.Fatalf("Normalize(%q) expected validation error, got %v", c, err)
		}
	}
}
