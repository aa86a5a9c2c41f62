// Package sanitizer neutralizes attacker-controlled text before it is
// re-emitted into HTML or persisted. It is a denylist-based defanging
// pipeline: decoders normalize obfuscated input, filters strip known
// dangerous constructs, and a tag matcher escapes or rewrites markup
// until the text stops changing.
package sanitizer

// Stage is one step of the sanitization pipeline. Apply must be a pure
// function of its input and safe for concurrent use.
type Stage interface {
	// Name returns a human-readable identifier for logging and traces.
	Name() string

	// Apply transforms content and returns the result.
	Apply(content string) string
}

type funcStage struct {
	name string
	fn   func(string) string
}

func (s funcStage) Name() string               { return s.name }
func (s funcStage) Apply(content string) string { return s.fn(content) }

// NewStage adapts a plain string transform into a Stage.
func NewStage(name string, fn func(string) string) Stage {
	return funcStage{name: name, fn: fn}
}

// Pipeline executes an ordered sequence of Stages, threading the output of
// each into the next.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from the given stages. Execution order
// matches the slice order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run applies every stage in order and returns the final content.
func (p *Pipeline) Run(content string) string {
	for _, s := range p.stages {
		content = s.Apply(content)
	}
	return content
}

// Process runs all stages in order and records which of them changed the
// content.
func (p *Pipeline) Process(content string) Result {
	result := Result{
		FinalVerdict: VerdictPass,
		Stages:       make([]StageResult, 0, len(p.stages)),
	}

	current := content
	for _, s := range p.stages {
		next := s.Apply(current)

		sr := StageResult{Stage: s.Name(), Verdict: VerdictPass}
		if next != current {
			sr.Verdict = VerdictModify
			result.FinalVerdict = VerdictModify
		}
		result.Stages = append(result.Stages, sr)
		current = next
	}

	result.FinalContent = current
	return result
}
