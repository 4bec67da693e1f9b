package constants

// Step is the coarse stage reported through the status callback.
type Step string

const (
	StepIdle       Step = "idle"
	StepConnecting Step = "connecting"
	StepReading    Step = "reading"
	StepAnalyzing  Step = "analyzing"
	StepGenerating Step = "generating"
	StepComplete   Step = "complete"
	StepError      Step = "error"
)

// Progress values emitted on entry to each stage.
const (
	ProgressConnecting = 10
	ProgressReading    = 20
	ProgressAnalyzing  = 40
	ProgressGenerating = 60
	ProgressValidating = 90
	ProgressComplete   = 100
	ProgressError      = 0
)

// RunStatus is the canonical status for rows in the runs table.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)
