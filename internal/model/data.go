package model

// TableCount is the number of rows appended to one table
type TableCount struct {
	Table string `json:"table"`
	Count int64  `json:"count"`
}

// LoadResult is the transient handoff from the load stage to the verifier.
// Tables keeps catalog order; Unmatched counts rows whose category matched no table.
type LoadResult struct {
	Tables    []TableCount `json:"tables"`
	Unmatched int64        `json:"unmatched"`
}

// Count returns the produced count for a table and whether the table is present
func (l LoadResult) Count(table string) (int64, bool) {
	for _, tc := range l.Tables {
		if tc.Table == table {
			return tc.Count, true
		}
	}
	return 0, false
}

// Total is the number of rows loaded across all tables
func (l LoadResult) Total() int64 {
	var total int64
	for _, tc := range l.Tables {
		total += tc.Count
	}
	return total
}

// AsMap flattens the result to {table: count}
func (l LoadResult) AsMap() map[string]int64 {
	m := make(map[string]int64, len(l.Tables))
	for _, tc := range l.Tables {
		m[tc.Table] = tc.Count
	}
	return m
}

// TableVerification compares produced and persisted counts for one table
type TableVerification struct {
	Table          string `json:"table"`
	ProducedCount  int64  `json:"produced_count"`
	PersistedCount int64  `json:"persisted_count"`
	Match          bool   `json:"match"`
}

// VerificationResult is the per-table comparison, in LoadResult order
type VerificationResult struct {
	Tables []TableVerification `json:"tables"`
}

// AllMatch reports whether every table matched
func (v VerificationResult) AllMatch() bool {
	for _, t := range v.Tables {
		if !t.Match {
			return false
		}
	}
	return true
}

// Mismatched returns the tables whose counts differ
func (v VerificationResult) Mismatched() []TableVerification {
	var out []TableVerification
	for _, t := range v.Tables {
		if !t.Match {
			out = append(out, t)
		}
	}
	return out
}
