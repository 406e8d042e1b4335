// Package validation implements the four-step onboarding check every new
// TLV-backed data type must pass before it ships: raw parse, TLV
// serialize, TLV deserialize, and deep equality (spec §4.3).
package validation

import (
	"reflect"

	"github.com/dawsh2/torq/pkg/torqerr"
)

// Step identifies which stage of the pipeline failed, so callers (and
// metrics) can tell a raw-parse bug from a codec bug.
type Step int

const (
	StepRawParse Step = iota
	StepSerialize
	StepDeserialize
	StepDeepEquality
)

func (s Step) String() string {
	switch s {
	case StepRawParse:
		return "raw_parse"
	case StepSerialize:
		return "serialize"
	case StepDeserialize:
		return "deserialize"
	case StepDeepEquality:
		return "deep_equality"
	default:
		return "unknown"
	}
}

// Result is the outcome of running Pipeline.Check against a single
// captured sample.
type Result struct {
	Passed bool
	Step   Step
	Err    error
}

// Pipeline validates one onboarded type T, wired with the three
// type-specific functions only the caller knows: how to parse the raw
// captured sample, how to serialize the resulting value into TLV bytes,
// and how to deserialize it back.
type Pipeline[Raw any, Typed any] struct {
	ParseRaw    func(raw Raw) (Typed, error)
	Serialize   func(v Typed) ([]byte, error)
	Deserialize func(b []byte) (Typed, error)
}

// Check runs all four steps against one sample and reports where (if
// anywhere) it failed.
func (p Pipeline[Raw, Typed]) Check(raw Raw) Result {
	parsed, err := p.ParseRaw(raw)
	if err != nil {
		return Result{Step: StepRawParse, Err: err}
	}

	encoded, err := p.Serialize(parsed)
	if err != nil {
		return Result{Step: StepSerialize, Err: err}
	}

	decoded, err := p.Deserialize(encoded)
	if err != nil {
		return Result{Step: StepDeserialize, Err: err}
	}

	if !reflect.DeepEqual(parsed, decoded) {
		return Result{Step: StepDeepEquality, Err: torqerr.New(torqerr.Protocol,
			"validation.Pipeline.Check", "round-tripped value differs from parsed value")}
	}

	reencoded, err := p.Serialize(decoded)
	if err != nil {
		return Result{Step: StepSerialize, Err: err}
	}
	if !reflect.DeepEqual(encoded, reencoded) {
		return Result{Step: StepDeepEquality, Err: torqerr.New(torqerr.Protocol,
			"validation.Pipeline.Check", "re-serialized bytes differ from original encoding")}
	}

	return Result{Passed: true}
}

// Sample Report summarizes a batch run against a captured corpus, used to
// enforce the ≥95% pass-rate release criterion (spec §4.3).
type Report struct {
	Total  int
	Passed int
}

// PassRate returns the fraction of samples that passed, or 1.0 for an
// empty corpus (vacuously satisfied).
func (r Report) PassRate() float64 {
	if r.Total == 0 {
		return 1.0
	}
	return float64(r.Passed) / float64(r.Total)
}

// MeetsReleaseCriterion reports whether r clears the 95% release bar.
func (r Report) MeetsReleaseCriterion() bool {
	return r.PassRate() >= 0.95
}

// RunBatch checks every sample in raws and accumulates a Report. Individual
// failures are returned alongside the report so callers can log detail
// without re-running the pipeline.
func RunBatch[Raw any, Typed any](p Pipeline[Raw, Typed], raws []Raw) (Report, []Result) {
	report := Report{Total: len(raws)}
	failures := make([]Result, 0)
	for _, raw := range raws {
		res := p.Check(raw)
		if res.Passed {
			report.Passed++
		} else {
			failures = append(failures, res)
		}
	}
	return report, failures
}
