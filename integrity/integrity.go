// Package integrity cross-checks the identifier sets of sibling archive
// artifacts. Every artifact that feeds the graph keeps its own copy of the
// thread id universe; a divergence means a scrape or enrichment pass was
// only partially applied.
package integrity

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrTooFewSets is returned when fewer than two identifier sets are given;
// a consistency comparison is undefined for a single artifact.
var ErrTooFewSets = errors.New("integrity: need at least two identifier sets")

// Set is a set of thread identifiers extracted from one artifact.
type Set map[string]struct{}

// NewSet builds a Set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// IDsFromCSV extracts the id column of a CSV artifact. The first row is
// the header; rows without an id value are skipped.
func IDsFromCSV(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	idCol := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "id" {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%s: no id column in header %v", path, header)
	}

	ids := make(Set)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if idCol >= len(row) {
			continue
		}
		if id := strings.TrimSpace(row[idCol]); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// IDsFromJSON extracts the id field from every element of a JSON array
// artifact.
func IDsFromJSON(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	ids := make(Set, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			ids[e.ID] = struct{}{}
		}
	}
	return ids, nil
}

// IDsFromXLSX extracts the id column of the first sheet of a spreadsheet
// artifact. Some snapshots circulate as sheet exports of turras.csv.
func IDsFromXLSX(path string) (Set, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s sheet %s: %w", path, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %s is empty", path, sheets[0])
	}

	idCol := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(name) == "id" {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%s: no id column in header %v", path, rows[0])
	}

	ids := make(Set)
	for _, row := range rows[1:] {
		if idCol >= len(row) {
			continue
		}
		if id := strings.TrimSpace(row[idCol]); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// Report is the outcome of a consistency check.
type Report struct {
	// Consistent is true when every artifact holds the same id set.
	Consistent bool
	// Missing maps each artifact name to the sorted ids present in at
	// least one other artifact but absent from it. Artifacts with no
	// missing ids are omitted.
	Missing map[string][]string
}

// Check compares the identifier sets of the named artifacts. A divergence
// is reported, never an error; the only error case is an undefined
// comparison over fewer than two sets.
func Check(sets map[string]Set) (*Report, error) {
	if len(sets) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSets, len(sets))
	}

	union := make(Set)
	for _, s := range sets {
		for id := range s {
			union[id] = struct{}{}
		}
	}

	intersection := make(Set)
	for id := range union {
		inAll := true
		for _, s := range sets {
			if _, ok := s[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			intersection[id] = struct{}{}
		}
	}

	report := &Report{
		Consistent: len(intersection) == len(union),
		Missing:    make(map[string][]string),
	}
	if report.Consistent {
		return report, nil
	}

	for name, s := range sets {
		var missing []string
		for id := range union {
			if _, ok := s[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			report.Missing[name] = missing
		}
	}
	return report, nil
}

// String renders the human-readable consistency report.
func (r *Report) String() string {
	if r.Consistent {
		return "All ids are present in every artifact.\n"
	}

	names := make([]string, 0, len(r.Missing))
	for name := range r.Missing {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Missing ids found in the following artifacts:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "%s: missing ids -> %s\n", name, strings.Join(r.Missing[name], ", "))
	}
	return b.String()
}
