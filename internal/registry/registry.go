package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultUmbrella is the parent network entry. Its events already arrive
// through the federated query.
const DefaultUmbrella = "techlahoma-foundation"

// Registry is the static list of groups queried one by one.
type Registry struct {
	ids []string
}

// New builds a registry, dropping blanks, duplicates and the umbrella entry.
func New(ids []string, umbrella string) *Registry {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == umbrella {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return &Registry{ids: out}
}

// LoadCSV reads a groups table with a "urlname" header column.
func LoadCSV(path, umbrella string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open groups file: %w", err)
	}
	defer f.Close()

	ids, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read groups file %s: %w", path, err)
	}
	return New(ids, umbrella), nil
}

// ReadCSV returns the urlname column of a groups table.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "urlname" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.New("missing urlname column")
	}

	var ids []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col < len(rec) {
			ids = append(ids, rec[col])
		}
	}
	return ids, nil
}

// IDs returns the group urlnames in registry order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

func (r *Registry) Len() int {
	return len(r.ids)
}
