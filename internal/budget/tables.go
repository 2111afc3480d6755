// Package budget turns the hand-authored per-emotion pattern wish lists into
// per-pattern quotas that fit the level's room capacity.
package budget

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
)

// #region table

// Table holds one count per pattern kind, indexed by pattern.Type.
type Table [pattern.Count]int

// Total sums every count.
func (t Table) Total() int {
	var n int
	for _, c := range t {
		n += c
	}
	return n
}

// MarshalJSON writes the non-zero entries as a name → count object.
func (t Table) MarshalJSON() ([]byte, error) {
	m := make(map[pattern.Type]int)
	for i, c := range t {
		if c != 0 {
			m[pattern.Type(i)] = c
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a name → count object; missing kinds are zero.
func (t *Table) UnmarshalJSON(b []byte) error {
	var m map[pattern.Type]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*t = Table{}
	for p, c := range m {
		t[p] = c
	}
	return nil
}

// #endregion table

// #region tables

// Tables maps each emotion to its desired pattern counts.
type Tables map[appraisal.Emotion]Table

//go:embed desired.json
var desiredJSON []byte

// DefaultTables returns the built-in desired tables.
func DefaultTables() Tables {
	t, err := LoadTables(bytes.NewReader(desiredJSON))
	if err != nil {
		panic(fmt.Sprintf("budget: embedded desired tables: %v", err))
	}
	return t
}

// LoadTables parses an emotion → pattern → count JSON document.
func LoadTables(r io.Reader) (Tables, error) {
	var t Tables
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode desired tables: %w", err)
	}
	for e, table := range t {
		for i, c := range table {
			if c < 0 {
				return nil, fmt.Errorf("desired tables: %s/%s has negative count %d", e, pattern.Type(i), c)
			}
		}
	}
	return t, nil
}

// LoadTablesFile reads an override file. An empty path yields the defaults.
func LoadTablesFile(path string) (Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open desired tables %s: %w", path, err)
	}
	defer f.Close()
	return LoadTables(f)
}

// Desired returns the table for e; an emotion without an entry gets an
// empty table.
func (t Tables) Desired(e appraisal.Emotion) Table {
	return t[e]
}

// #endregion tables
