package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rupesh-3/jandhan/pkg/identity"
)

// MemoryRegistry serves records from an in-memory map. Used for small
// deployments loaded from a CSV export and for tests.
type MemoryRegistry struct {
	records map[string]Record
	schemes []string
}

// NewMemoryRegistry indexes the given records by token.
func NewMemoryRegistry(records []Record) *MemoryRegistry {
	byToken := make(map[string]Record, len(records))
	seen := make(map[string]struct{})
	var schemes []string
	for _, r := range records {
		byToken[r.Token] = r
		if _, ok := seen[r.Scheme]; !ok && r.Scheme != "" {
			seen[r.Scheme] = struct{}{}
			schemes = append(schemes, r.Scheme)
		}
	}
	sort.Strings(schemes)
	return &MemoryRegistry{records: byToken, schemes: schemes}
}

func (m *MemoryRegistry) Lookup(_ context.Context, token string) (*Record, error) {
	r, ok := m.records[token]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryRegistry) Schemes(_ context.Context) ([]string, error) {
	out := make([]string, len(m.schemes))
	copy(out, m.schemes)
	return out, nil
}

// Len reports the number of loaded records.
func (m *MemoryRegistry) Len() int { return len(m.records) }

// csv columns, in order. The identifier column holds the raw beneficiary
// ID and is hashed during load; it never survives in memory.
const csvColumns = 7

// LoadCSV reads an eligibility export. Expected header:
//
//	beneficiary_id,active,linked,scheme,amount,claim_count,last_claim
//
// last_claim is RFC 3339 or empty.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry export: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvColumns

	var records []Record
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("registry export line %d: %w", line+1, err)
		}
		line++
		if line == 1 && strings.EqualFold(row[0], "beneficiary_id") {
			continue // header
		}

		amount, err := strconv.ParseInt(strings.TrimSpace(row[4]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("registry export line %d: bad amount: %w", line, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(row[5]))
		if err != nil {
			return nil, fmt.Errorf("registry export line %d: bad claim count: %w", line, err)
		}

		rec := Record{
			Token:      identity.Token(row[0]),
			Active:     parseBool(row[1]),
			Linked:     parseBool(row[2]),
			Scheme:     strings.TrimSpace(row[3]),
			Amount:     amount,
			ClaimCount: count,
		}
		if ts := strings.TrimSpace(row[6]); ts != "" {
			last, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("registry export line %d: bad last_claim: %w", line, err)
			}
			rec.LastClaim = &last
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "active", "linked":
		return true
	}
	return false
}
