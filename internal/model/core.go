package model

import "time"

// RunStatus is the terminal or in-flight state of a run
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Stage names, in execution order
const (
	StageWaitForFile = "wait_for_file"
	StageCreateTable = "create_table"
	StageLoad        = "transform_and_load"
	StageCheckRows   = "check_rows"
	StageRunInfo     = "run_information"
)

// Stages lists the stage names in execution order
var Stages = []string{StageWaitForFile, StageCreateTable, StageLoad, StageCheckRows, StageRunInfo}

// RerunPolicy decides what loading does when a table already holds rows
type RerunPolicy string

const (
	// RerunAppend appends every run, so a second run for the same date duplicates rows.
	RerunAppend RerunPolicy = "append"
	// RerunReplace deletes the date table's rows before appending, in one transaction.
	RerunReplace RerunPolicy = "replace"
)

// Valid reports whether p is a known policy
func (p RerunPolicy) Valid() bool {
	return p == RerunAppend || p == RerunReplace
}

// Run is one execution of the pipeline for a logical timestamp
type Run struct {
	ID          string            `json:"id"`
	LogicalTime time.Time         `json:"logical_time"`
	InputPath   string            `json:"input_path"`
	Tables      []TableDescriptor `json:"tables"`
	Status      RunStatus         `json:"status"`
	Attempt     int               `json:"attempt"`
}
