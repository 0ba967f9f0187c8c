package logger

// Standard field key constants for structured logging.
const (
	FieldComponent   = "component"
	FieldPipeline    = "pipeline"
	FieldExecutionID = "execution_id"
	FieldElements    = "elements"
	FieldOutstanding = "outstanding"
	FieldCompleted   = "completed"
	FieldIndex       = "index"
	FieldStage       = "stage"
	FieldOutcome     = "outcome"
	FieldMode        = "mode"
	FieldTimeout     = "timeout"
	FieldDuration    = "duration"
	FieldWorkers     = "workers"
)
