// Package relevance implements the deterministic file-relevance scorer
// shared by the git_diff tool's ranking and size-guidance output. It never
// calls the model: scoring a change twice yields identical scores.
package relevance

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ChangeType mirrors the kinds of change git can report for a path.
type ChangeType string

const (
	Added     ChangeType = "added"
	Modified  ChangeType = "modified"
	Deleted   ChangeType = "deleted"
	Renamed   ChangeType = "renamed"
	Untracked ChangeType = "untracked"
)

// Input is everything the scorer needs about one changed file.
type Input struct {
	Path         string
	ChangeType   ChangeType
	DiffText     string
	LinesAdded   int
	LinesRemoved int
}

// Score is the scorer's verdict: a value in [0,1] plus the tags that
// contributed to it, for debug output.
type Score struct {
	Value   float64
	Reasons []string
}

var (
	sourceExt = map[string]bool{
		".rs": true, ".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
		".py": true, ".c": true, ".cc": true, ".cpp": true, ".h": true, ".hpp": true,
		".java": true, ".kt": true, ".rb": true, ".cs": true, ".swift": true,
	}
	docsExt   = map[string]bool{".md": true, ".rst": true, ".adoc": true}
	configExt = map[string]bool{".toml": true, ".yaml": true, ".yml": true, ".json": true}

	lockLikeRe    = regexp.MustCompile(`(?i)(^|/)(cargo\.lock|package-lock\.json|yarn\.lock|pnpm-lock\.yaml|go\.sum)$`)
	minifiedRe    = regexp.MustCompile(`\.min\.`)
	buildCIRe     = regexp.MustCompile(`(?i)(^|/)(\.github/|makefile$|dockerfile$)`)
	testPathRe    = regexp.MustCompile(`(?i)test`)
	coreSourceRe  = regexp.MustCompile(`(?i)(^|/)(src|lib|internal)/`)
	exampleDocsRe = regexp.MustCompile(`(?i)(^|/)(docs|examples)/`)

	funcDefRe     = regexp.MustCompile(`(?m)^\+\s*(func |def |fn |public \w+ \w+\(|private \w+ \w+\()`)
	typeDefRe     = regexp.MustCompile(`(?m)^\+\s*(type \w+ (struct|interface)|class \w+|struct \w+)`)
	exportChangeRe = regexp.MustCompile(`(?m)^[+-]\s*(export |pub |public )`)
	errHandlingRe  = regexp.MustCompile(`(?m)^\+.*\b(if err != nil|try|except|catch|Result<|panic\()`)
	concurrencyRe  = regexp.MustCompile(`(?m)^\+.*\b(go func|goroutine|async |await |Mutex|channel|sync\.)`)
)

// Compute computes the deterministic relevance score and reason tags for one
// changed file, per the additive rule set: base change-type weight,
// category weight, location weight, size weight, and up to three syntactic
// tag bonuses, clamped to [0,1].
func Compute(in Input) Score {
	var value float64
	var reasons []string

	add := func(delta float64, reason string) {
		value += delta
		reasons = append(reasons, reason)
	}

	switch in.ChangeType {
	case Added:
		add(0.15, "added")
	case Modified:
		add(0.10, "modified")
	case Deleted:
		add(0.05, "deleted")
	case Renamed:
		add(0.08, "renamed")
	case Untracked:
		add(0.02, "untracked")
	}

	ext := strings.ToLower(filepath.Ext(in.Path))
	lower := strings.ToLower(in.Path)
	switch {
	case lockLikeRe.MatchString(lower) || minifiedRe.MatchString(lower):
		add(-0.2, "generated_or_lockfile")
	case sourceExt[ext]:
		add(0.15, "source_code")
		if testPathRe.MatchString(lower) {
			add(0.08, "test_file")
		}
	case docsExt[ext]:
		add(0.03, "docs")
	case configExt[ext] || buildCIRe.MatchString(lower):
		add(0.05, "config_or_ci")
	}

	switch {
	case coreSourceRe.MatchString(lower):
		add(0.10, "core_source_location")
	case exampleDocsRe.MatchString(lower):
		add(0.02, "docs_or_examples_location")
	}

	lines := in.LinesAdded + in.LinesRemoved
	switch {
	case lines >= 1 && lines < 5:
		add(-0.05, "trivial_size")
	case lines >= 5 && lines <= 300:
		add(0.10, "substantive_size")
	case lines > 300 && lines <= 1500:
		add(0.05, "large_size")
	case lines > 1500:
		add(-0.05, "massive_size")
	}

	var synBonus float64
	if funcDefRe.MatchString(in.DiffText) {
		synBonus += 0.1
		reasons = append(reasons, "function_definition_added")
	}
	if typeDefRe.MatchString(in.DiffText) {
		synBonus += 0.1
		reasons = append(reasons, "type_definition_added")
	}
	if exportChangeRe.MatchString(in.DiffText) {
		synBonus += 0.1
		reasons = append(reasons, "public_api_surface_changed")
	}
	if errHandlingRe.MatchString(in.DiffText) {
		synBonus += 0.1
		reasons = append(reasons, "error_handling_added")
	}
	if concurrencyRe.MatchString(in.DiffText) {
		synBonus += 0.1
		reasons = append(reasons, "concurrency_primitive_added")
	}
	if synBonus > 0.3 {
		synBonus = 0.3
	}
	value += synBonus

	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return Score{Value: value, Reasons: reasons}
}

// SizeCategory classifies a changeset by total files and lines touched.
type SizeCategory string

const (
	Small     SizeCategory = "small"
	Medium    SizeCategory = "medium"
	Large     SizeCategory = "large"
	VeryLarge SizeCategory = "very_large"
)

// ClassifySize derives the changeset size category from total files and lines.
func ClassifySize(files, lines int) SizeCategory {
	switch {
	case files > 20 || lines > 1000:
		return VeryLarge
	case files > 10 || lines > 500:
		return Large
	case files > 3 || lines >= 100:
		return Medium
	default:
		return Small
	}
}

// Guidance returns a one-sentence recommendation for working with a
// changeset of the given size category.
func Guidance(size SizeCategory) string {
	switch size {
	case VeryLarge:
		return "Guidance: this changeset is very large; use parallel_analyze to delegate per-area analysis before drawing conclusions."
	case Large:
		return "Guidance: focus on files with relevance >= 0.6 first; consider parallel_analyze for independent areas."
	case Medium:
		return "Guidance: review all files, but prioritize by relevance score."
	default:
		return "Guidance: small changeset, review all files directly."
	}
}
