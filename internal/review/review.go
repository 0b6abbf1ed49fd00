// Package review asks an external LLM command line tool whether near-miss
// bibliography entries are the same source.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/citefix/internal/dedupe"
)

const (
	// DefaultCommand is the reviewer executable.
	DefaultCommand = "claude"

	// DefaultModel is passed to the reviewer with --model.
	DefaultModel = "haiku"

	// DefaultTimeout bounds each reviewer call.
	DefaultTimeout = 2 * time.Minute

	// DefaultChunkSize is the number of candidate pairs sent per call.
	DefaultChunkSize = 25

	// DefaultRate is the number of reviewer calls per second.
	DefaultRate = 0.5

	// maxEntryLength limits each bibliography entry quoted in a prompt.
	maxEntryLength = 400
)

// ErrReviewerUnavailable is returned when the reviewer command is missing.
var ErrReviewerUnavailable = errors.New("duplicate reviewer unavailable")

// Runner executes the reviewer with a prompt and returns its output.
type Runner func(ctx context.Context, command, model, prompt string) (string, error)

// Reviewer sends candidate pairs to an external command in rate-limited
// chunks.
type Reviewer struct {
	command   string
	model     string
	timeout   time.Duration
	chunkSize int
	limiter   *rate.Limiter
	logger    *zap.Logger
	run       Runner
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithCommand sets the reviewer executable.
func WithCommand(command string) Option {
	return func(r *Reviewer) {
		if command != "" {
			r.command = command
		}
	}
}

// WithModel sets the model name passed to the reviewer.
func WithModel(model string) Option {
	return func(r *Reviewer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(r *Reviewer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithChunkSize sets the number of pairs per call.
func WithChunkSize(n int) Option {
	return func(r *Reviewer) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithRate sets the call rate in calls per second. Zero or less disables
// pacing.
func WithRate(perSecond float64) Option {
	return func(r *Reviewer) {
		if perSecond <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reviewer) {
		r.logger = logger
	}
}

// WithRunner replaces the subprocess call (for testing).
func WithRunner(run Runner) Option {
	return func(r *Reviewer) {
		r.run = run
	}
}

// New creates a Reviewer.
func New(opts ...Option) *Reviewer {
	r := &Reviewer{
		command:   DefaultCommand,
		model:     DefaultModel,
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRate), 1),
		logger:    zap.NewNop(),
		run:       runCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review returns the candidate pairs the reviewer confirmed as duplicates.
// A failed or timed out call only loses the pairs of its chunk; a missing
// command or a cancelled context stops the review. Review never fails: the
// worst case is no pairs.
func (r *Reviewer) Review(ctx context.Context, refs map[int]string, cands []dedupe.Candidate) []dedupe.Pair {
	var pairs []dedupe.Pair
	for start := 0; start < len(cands); start += r.chunkSize {
		end := min(start+r.chunkSize, len(cands))
		chunk := cands[start:end]

		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Warn("duplicate review stopped", zap.Error(err))
			break
		}

		got, err := r.reviewChunk(ctx, refs, chunk)
		if err != nil {
			r.logger.Warn("duplicate review failed",
				zap.Int("first_pair", start),
				zap.Int("pairs", len(chunk)),
				zap.Error(err))
			if errors.Is(err, ErrReviewerUnavailable) || ctx.Err() != nil {
				break
			}
			continue
		}
		r.logger.Debug("duplicate review chunk done",
			zap.Int("pairs", len(chunk)),
			zap.Int("confirmed", len(got)))
		pairs = append(pairs, got...)
	}
	return pairs
}

func (r *Reviewer) reviewChunk(ctx context.Context, refs map[int]string, chunk []dedupe.Candidate) ([]dedupe.Pair, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	response, err := r.run(ctx, r.command, r.model, buildPrompt(refs, chunk))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out after %s", r.command, r.timeout)
		}
		return nil, err
	}

	confirmed, err := parseResponse(response)
	if err != nil {
		return nil, err
	}
	return keepAsked(confirmed, chunk), nil
}

// runCommand calls the reviewer CLI with the given prompt.
func runCommand(ctx context.Context, command, model, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, command, "--model", model, "-p", prompt)
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found", ErrReviewerUnavailable, command)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%s error: %s", command, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s error: %w", command, err)
	}

	return strings.TrimSpace(string(output)), nil
}

// buildPrompt builds the prompt for one chunk of candidate pairs.
func buildPrompt(refs map[int]string, chunk []dedupe.Candidate) string {
	var pairsText strings.Builder
	for _, c := range chunk {
		fmt.Fprintf(&pairsText, `
---
PAIR: [%d, %d]
A: %s
B: %s
---`, c.A, c.B, truncateUTF8(refs[c.A], maxEntryLength), truncateUTF8(refs[c.B], maxEntryLength))
	}

	return fmt.Sprintf(`You are checking a manuscript bibliography for duplicate entries. Each pair below shares a first author and year. Decide whether the two entries describe the same publication (same article, chapter or book), allowing for differences in punctuation, abbreviation, author list truncation or typos.

Output format: Return a JSON array containing the PAIR value of every pair that is a duplicate.
Example: [[3, 17], [8, 42]]
Return [] if none are duplicates.

Pairs to check:
%s

Return ONLY the JSON array, no other text.`, pairsText.String())
}

// parseResponse parses the reviewer output into pairs.
func parseResponse(response string) ([]dedupe.Pair, error) {
	text := strings.TrimSpace(response)

	// Handle markdown code blocks
	if strings.HasPrefix(text, "```") {
		text = extractFromCodeBlock(text)
	}

	var raw [][]int
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reviewer response as JSON: %w", err)
	}

	pairs := make([]dedupe.Pair, 0, len(raw))
	for _, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("reviewer returned %v, want a pair of numbers", p)
		}
		a, b := min(p[0], p[1]), max(p[0], p[1])
		pairs = append(pairs, dedupe.Pair{Original: a, Duplicate: b})
	}
	return pairs, nil
}

// keepAsked drops pairs the reviewer was not asked about.
func keepAsked(pairs []dedupe.Pair, chunk []dedupe.Candidate) []dedupe.Pair {
	asked := make(map[[2]int]bool, len(chunk))
	for _, c := range chunk {
		asked[[2]int{min(c.A, c.B), max(c.A, c.B)}] = true
	}

	var out []dedupe.Pair
	for _, p := range pairs {
		if asked[[2]int{p.Original, p.Duplicate}] {
			out = append(out, p)
		}
	}
	return out
}

// extractFromCodeBlock extracts content from a markdown code block.
func extractFromCodeBlock(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	// Remove first line (```json or ```)
	start := 1
	// Remove last line if it's ```
	end := len(lines)
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		end = len(lines) - 1
	}

	return strings.Join(lines[start:end], "\n")
}

// truncateUTF8 safely truncates text to approximately maxLen bytes
// without splitting multi-byte UTF-8 characters. Adds "..." if truncated.
func truncateUTF8(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	validLen := maxLen
	for validLen > 0 && !utf8.RuneStart(text[validLen]) {
		validLen--
	}

	if validLen == 0 {
		return ""
	}

	return text[:validLen] + "..."
}
