package testutil

import (
	"testing"

	"github.com/vanderheijden86/propdeck/pkg/model"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []model.Record, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertUniqueIdentities verifies no two records share an identity key.
func AssertUniqueIdentities(t *testing.T, records []model.Record) {
	t.Helper()
	seen := make(map[string]int, len(records))
	for i := range records {
		id := records[i].Identity()
		if prev, dup := seen[id]; dup {
			t.Errorf("records %d and %d share identity %s", prev, i, id)
		}
		seen[id] = i
	}
}

// AssertColumnPopulated verifies every record carries a non-empty value for
// the column.
func AssertColumnPopulated(t *testing.T, records []model.Record, column string) {
	t.Helper()
	for i := range records {
		if records[i].Field(column) == "" {
			t.Errorf("record %d (%s) has empty %s", i, records[i].Identity(), column)
		}
	}
}
