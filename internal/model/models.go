package model

import (
	"fmt"
	"time"
)

// Category is one of the fixed product categories loaded by the pipeline
type Category struct {
	Label string `json:"label"` // exact value of the CSV Category column
	Slug  string `json:"slug"`  // table-name component
}

var (
	CategoryAlcoholic     = Category{Label: "Alcoholic beverages", Slug: "alcoholic"}
	CategoryCerealsBakery = Category{Label: "Cereals and bakery products", Slug: "cereals_bakery"}
	CategoryMeatsPoultry  = Category{Label: "Meats and poultry", Slug: "meats_poultry"}
)

// Categories lists the loaded categories in load order.
// Every component that walks the target tables iterates this slice.
var Categories = []Category{
	CategoryAlcoholic,
	CategoryCerealsBakery,
	CategoryMeatsPoultry,
}

// Canonical column names of the target tables
const (
	ColCategory            = "category"
	ColSubCategory         = "sub_category"
	ColAggregationDate     = "aggregation_date"
	ColMillionsOfDollar    = "millions_of_dollar"
	ColPipelineExcDatetime = "pipeline_exc_datetime"
)

// Column is a target table column and its SQL type
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Columns is the fixed schema shared by the three target tables.
var Columns = []Column{
	{Name: ColCategory, Type: "VARCHAR(255)"},
	{Name: ColSubCategory, Type: "VARCHAR(255)"},
	{Name: ColAggregationDate, Type: "DATE"},
	{Name: ColMillionsOfDollar, Type: "INT"},
	{Name: ColPipelineExcDatetime, Type: "TIMESTAMP"},
}

// ColumnNames returns the column names in schema order
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// TableDescriptor pairs a category with its table for one run date
type TableDescriptor struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
}

// TableName derives the table for a category on a given date, e.g.
// consumption_alcoholic_20230828. The same date and category always yield
// the same table, so re-runs on that date reuse it.
func TableName(c Category, date time.Time) string {
	return fmt.Sprintf("consumption_%s_%s", c.Slug, date.Format("20060102"))
}

// TablesFor returns the descriptors of all categories for a date, in load order
func TablesFor(date time.Time) []TableDescriptor {
	tables := make([]TableDescriptor, len(Categories))
	for i, c := range Categories {
		tables[i] = TableDescriptor{Category: c, Name: TableName(c, date)}
	}
	return tables
}

// CategoryByLabel looks up a category by its exact CSV label
func CategoryByLabel(label string) (Category, bool) {
	for _, c := range Categories {
		if c.Label == label {
			return c, true
		}
	}
	return Category{}, false
}

// SourceRecord is one normalized CSV row. Nil pointers are stored as NULL.
type SourceRecord struct {
	Category            string     `json:"category"`
	SubCategory         string     `json:"sub_category"`
	AggregationDate     *time.Time `json:"aggregation_date"`
	MillionsOfDollar    *int64     `json:"millions_of_dollar"`
	PipelineExcDatetime time.Time  `json:"pipeline_exc_datetime"`
}

// AggregationDateLayout is the text form of a parsed aggregation date
const AggregationDateLayout = "2006/01/02"

// AggregationDateText returns the date as YYYY/MM/DD, or "" when NULL
func (r SourceRecord) AggregationDateText() string {
	if r.AggregationDate == nil {
		return ""
	}
	return r.AggregationDate.Format(AggregationDateLayout)
}
