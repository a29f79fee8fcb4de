package pipeline

import (
	"math"
	"strings"
	"time"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/pkg/utils"
)

// ColumnMapping renames source headers to the canonical table columns
var ColumnMapping = map[string]string{
	HeaderCategory:    model.ColCategory,
	HeaderSubCategory: model.ColSubCategory,
	HeaderMonth:       model.ColAggregationDate,
	HeaderMillions:    model.ColMillionsOfDollar,
}

// monthLayout is day/month/year; single-digit day and month are accepted
const monthLayout = "2/1/2006"

// ParseAggregationDate parses a DD/MM/YYYY cell. Unparsable input yields nil.
func ParseAggregationDate(raw string) *time.Time {
	t, err := time.Parse(monthLayout, strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &t
}

// NormalizeStats counts cells coerced to NULL
type NormalizeStats struct {
	BadDates   int
	BadAmounts int
}

// Normalize turns raw rows into source records: parse the date column,
// rename to canonical columns, then stamp every record with logicalTime.
// A bad cell becomes NULL and the row is kept.
func Normalize(rows []GenericRecord, logicalTime time.Time) ([]model.SourceRecord, NormalizeStats) {
	var stats NormalizeStats
	records := make([]model.SourceRecord, 0, len(rows))

	for _, row := range rows {
		date := ParseAggregationDate(row[HeaderMonth])
		if date == nil {
			stats.BadDates++
		}

		cols := renameColumns(row)

		var millions *int64
		// millions_of_dollar is a 32-bit INT column
		if v, ok := utils.ParseInt(cols[model.ColMillionsOfDollar]); ok && v >= math.MinInt32 && v <= math.MaxInt32 {
			millions = &v
		} else {
			stats.BadAmounts++
		}

		records = append(records, model.SourceRecord{
			Category:            cols[model.ColCategory],
			SubCategory:         cols[model.ColSubCategory],
			AggregationDate:     date,
			MillionsOfDollar:    millions,
			PipelineExcDatetime: logicalTime,
		})
	}

	return records, stats
}

func renameColumns(row GenericRecord) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		if canonical, ok := ColumnMapping[k]; ok {
			out[canonical] = v
		}
	}
	return out
}

// Partitions groups records by category label
type Partitions struct {
	Groups    map[string][]model.SourceRecord
	Unmatched []model.SourceRecord
}

// For returns the records of one category
func (p Partitions) For(c model.Category) []model.SourceRecord {
	return p.Groups[c.Label]
}

// Partition splits records by exact category match. Each matching record lands
// in exactly one group; the rest go to Unmatched and are not loaded.
func Partition(records []model.SourceRecord) Partitions {
	p := Partitions{Groups: make(map[string][]model.SourceRecord, len(model.Categories))}
	for _, rec := range records {
		c, ok := model.CategoryByLabel(rec.Category)
		if !ok {
			p.Unmatched = append(p.Unmatched, rec)
			continue
		}
		p.Groups[c.Label] = append(p.Groups[c.Label], rec)
	}
	return p
}

// unmatchedLabels lists the distinct categories of unmatched records, in first-seen order
func unmatchedLabels(records []model.SourceRecord) []string {
	seen := map[string]bool{}
	var labels []string
	for _, r := range records {
		if !seen[r.Category] {
			seen[r.Category] = true
			labels = append(labels, r.Category)
		}
	}
	return labels
}
