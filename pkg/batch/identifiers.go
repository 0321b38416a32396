// Package batch loads and validates the ordered list of patient identifiers for a run.
package batch

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	errEmptyBatch        = errors.New("no patient identifiers given")
	errInvalidIdentifier = errors.New("invalid patient identifier")
)

const maxIdentifierLength = 15

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load merges identifiers from args and, when path is set, from a file with one
// identifier per line ('#' starts a comment). Order is preserved; duplicates
// keep their first position.
func Load(args []string, path string) ([]string, error) {
	raw := append([]string{}, args...)
	if path != "" {
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		raw = append(raw, lines...)
	}
	return Normalize(raw)
}

// Normalize trims, strips an optional "CC-" prefix, de-duplicates and validates.
func Normalize(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, field := range strings.Split(item, ",") {
			id := strings.TrimSpace(field)
			id = strings.TrimPrefix(strings.TrimPrefix(strings.ToUpper(id), "CC-"), "CC")
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if err := Validate(id); err != nil {
				return nil, err
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ValidationError{reason: errEmptyBatch}
	}
	return out, nil
}

func Validate(id string) error {
	if len(id) > maxIdentifierLength {
		return ValidationError{reason: fmt.Errorf("identifier '%s' longer than %d digits: %w", id, maxIdentifierLength, errInvalidIdentifier)}
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ValidationError{reason: fmt.Errorf("identifier '%s' must be numeric: %w", id, errInvalidIdentifier)}
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
