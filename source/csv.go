package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/bizmatch/core"
)

var (
	idColumns          = []string{"entity_id", "ticker", "id"}
	nameColumns        = []string{"display_name", "company name", "company_name", "name"}
	descriptionColumns = []string{"raw_description", "business description", "business_description", "description"}
)

// columns holds the index of each logical column, -1 when absent.
type columns struct {
	id, name, description int
}

func locate(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	find := func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		id:          find(idColumns),
		name:        find(nameColumns),
		description: find(descriptionColumns),
	}
	if cols.name < 0 {
		return cols, fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(nameColumns, ", "))
	}
	return cols, nil
}

// ReadCSV reads entities from r in row order.
func ReadCSV(r io.Reader) ([]core.Entity, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := locate(header)
	if err != nil {
		return nil, err
	}

	field := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entities []core.Entity
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(entities)+2, err)
		}

		e := core.Entity{
			ID:          field(record, cols.id),
			Name:        field(record, cols.name),
			Description: field(record, cols.description),
		}
		if cols.id < 0 {
			e.ID = e.Name
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// ReadFile reads entities from the CSV file at path.
func ReadFile(path string) ([]core.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entities, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entities, nil
}
