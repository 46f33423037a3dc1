// Package startup runs the pre-flight validation suite: configuration,
// artifact directory, cache backend reachability, and provider credentials,
// with colored progress output before the server starts accepting traffic.
package startup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"noodle_backend/cache"
	"noodle_backend/core"
	"noodle_backend/imagegen"

	"github.com/fatih/color"
)

// StepStatus is the outcome of a single validation step.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepFailed
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step is a completed validation step.
type Step struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// Result is the outcome of a full suite run.
type Result struct {
	Steps       []Step
	PassedSteps int
	FailedSteps int
	Duration    time.Duration
	Success     bool
}

// FirstError returns the first step error, or nil when everything passed.
func (r Result) FirstError() error {
	for _, step := range r.Steps {
		if step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Suite validates the service environment before the server starts.
type Suite struct {
	cfg          *core.Config
	index        cache.Index
	output       io.Writer
	timeout      time.Duration
	showProgress bool
}

// NewSuite builds a validation suite for the given config and cache index.
func NewSuite(cfg *core.Config, index cache.Index) *Suite {
	return &Suite{
		cfg:          cfg,
		index:        index,
		output:       os.Stdout,
		timeout:      10 * time.Second,
		showProgress: true,
	}
}

// WithOutput sets the progress writer.
func (s *Suite) WithOutput(w io.Writer) *Suite {
	s.output = w
	return s
}

// WithTimeout bounds the backend reachability check.
func (s *Suite) WithTimeout(timeout time.Duration) *Suite {
	s.timeout = timeout
	return s
}

// WithShowProgress enables or disables progress output.
func (s *Suite) WithShowProgress(show bool) *Suite {
	s.showProgress = show
	return s
}

// Run executes all checks in order. Configuration failures skip the checks
// that depend on a valid configuration.
func (s *Suite) Run(ctx context.Context) Result {
	start := time.Now()
	var steps []Step

	if s.showProgress {
		s.printHeader("Noodle Image Service Startup Validation")
	}

	configStep := s.runStep("Configuration", s.checkConfig)
	steps = append(steps, configStep)

	steps = append(steps, s.runStep("Artifacts Directory", s.checkArtifactsDir))

	if configStep.Status == StepPassed {
		steps = append(steps, s.runStep("Cache Backend", func() (bool, string, error) {
			return s.checkCacheBackend(ctx)
		}))
		steps = append(steps, s.runStep("Provider Credentials", s.checkProvider))
	} else {
		for _, name := range []string{"Cache Backend", "Provider Credentials"} {
			step := Step{Name: name, Status: StepSkipped, Message: "skipped due to configuration errors"}
			if s.showProgress {
				s.printStep(step)
			}
			steps = append(steps, step)
		}
	}

	result := s.buildResult(steps, start)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *Suite) checkConfig() (bool, string, error) {
	if s.cfg == nil {
		return false, "", fmt.Errorf("startup: configuration is nil")
	}
	if err := s.cfg.Validate(); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("backend=%s, listen=%s:%d", s.cfg.CacheBackend, s.cfg.Host, s.cfg.Port), nil
}

func (s *Suite) checkArtifactsDir() (bool, string, error) {
	if s.cfg == nil || s.cfg.ArtifactsDir == "" {
		return false, "", fmt.Errorf("startup: artifacts directory is not configured")
	}
	if err := os.MkdirAll(s.cfg.ArtifactsDir, 0o755); err != nil {
		return false, "", fmt.Errorf("startup: cannot create artifacts directory: %w", err)
	}

	// A writable probe file, removed immediately. Stat alone can lie on
	// read-only mounts.
	probe := filepath.Join(s.cfg.ArtifactsDir, ".startup-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return false, "", fmt.Errorf("startup: artifacts directory is not writable: %w", err)
	}
	_ = os.Remove(probe)

	return true, s.cfg.ArtifactsDir, nil
}

func (s *Suite) checkCacheBackend(ctx context.Context) (bool, string, error) {
	if s.index == nil {
		return false, "", fmt.Errorf("startup: cache index is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.index.Ping(ctx); err != nil {
		return false, "", fmt.Errorf("startup: cache backend unreachable: %w", err)
	}
	return true, fmt.Sprintf("reachable (latency: %v)", time.Since(start).Round(time.Millisecond)), nil
}

func (s *Suite) checkProvider() (bool, string, error) {
	if s.cfg.OpenAIAPIKey == "" {
		return false, "", fmt.Errorf("startup: OPENAI_API_KEY is not set")
	}

	endpoint := s.cfg.ImageLLMURL
	if endpoint != "" && imagegen.IsLocalEndpoint(endpoint) {
		return false, "", fmt.Errorf("startup: local endpoint (%s) does not support image generation", endpoint)
	}
	if imagegen.IsAzureEndpoint(endpoint) || imagegen.IsAzureEndpoint(s.cfg.AzureOpenAIEndpoint) {
		if s.cfg.AzureOpenAIDeployment == "" {
			return false, "", fmt.Errorf("startup: AZURE_OPENAI_DEPLOYMENT is required for an Azure endpoint")
		}
		return true, "azure", nil
	}
	return true, "openai", nil
}

// runStep executes a check with timing and progress output.
func (s *Suite) runStep(name string, fn func() (bool, string, error)) Step {
	if s.showProgress {
		fmt.Fprintf(s.output, "  ◌ %s...", name)
	}

	start := time.Now()
	passed, message, err := fn()

	step := Step{
		Name:    name,
		Message: message,
		Error:   err,
		Latency: time.Since(start),
		Status:  StepPassed,
	}
	if !passed {
		step.Status = StepFailed
	}

	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func (s *Suite) buildResult(steps []Step, start time.Time) Result {
	result := Result{
		Steps:    steps,
		Duration: time.Since(start),
		Success:  true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		}
	}
	return result
}

func (s *Suite) printHeader(title string) {
	fmt.Fprintln(s.output)
	color.New(color.FgCyan, color.Bold).Fprintf(s.output, "=== %s ===\n", title)
	fmt.Fprintln(s.output)
}

func (s *Suite) printStep(step Step) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    -> %s\n", step.Error.Error())
	}
}

func (s *Suite) printSummary(result Result) {
	fmt.Fprintln(s.output)
	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintf(s.output, "=== Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks in %v)",
			result.PassedSteps, len(result.Steps), result.Duration.Round(time.Millisecond))
		color.New(color.FgGreen, color.Bold).Fprintln(s.output, " ===")
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(s.output, "=== Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		color.New(color.FgRed, color.Bold).Fprintln(s.output, " ===")
	}
	fmt.Fprintln(s.output)
}
