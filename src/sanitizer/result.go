package sanitizer

// Verdict represents what a stage did to the text it was given.
type Verdict int

const (
	// VerdictPass means the stage left the content untouched.
	VerdictPass Verdict = iota
	// VerdictModify means the stage rewrote the content.
	VerdictModify
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictModify:
		return "modify"
	default:
		return "unknown"
	}
}

// StageResult is the outcome of a single Stage.
type StageResult struct {
	Stage   string
	Verdict Verdict
}

// Result aggregates the outcome of every stage in a pipeline run.
type Result struct {
	FinalVerdict Verdict
	FinalContent string
	Stages       []StageResult
}

// Modified returns the names of the stages that rewrote the content, in
// execution order.
func (r Result) Modified() []string {
	var names []string
	for _, s := range r.Stages {
		if s.Verdict == VerdictModify {
			names = append(names, s.Stage)
		}
	}
	return names
}
