// Package git answers the questions docgov asks of version control: which
// files changed in a diff range, the one-line log of that range, and where
// HEAD points. Diffs and logs shell out to the git binary.
package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
)

// Cached is the pseudo range selecting staged changes.
const Cached = "--cached"

// DefaultRange compares the working tree with HEAD.
const DefaultRange = "HEAD"

// ReportPaths are the paths summarised by the change report log.
var ReportPaths = []string{"docs", "artifacts", "schemas", "scripts"}

// validRange accepts refs, HEAD~N forms, and A..B / A...B ranges.
var validRange = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_./@^~{}-]*(?:\.{2,3}[A-Za-z0-9_][A-Za-z0-9_./@^~{}-]*)?$`)

// ValidateRange rejects diff ranges that could be read as git options or
// contain control characters. Cached is always accepted.
func ValidateRange(r string) error {
	if r == Cached {
		return nil
	}
	for _, c := range r {
		if c < 32 || c == 127 {
			return fmt.Errorf("diff range contains invalid control character")
		}
	}
	if !validRange.MatchString(r) {
		return fmt.Errorf("invalid diff range %q", r)
	}
	return nil
}

// Client runs git against one working tree.
type Client struct {
	root   string
	logger *slog.Logger
}

// New returns a client for the repository containing root.
func New(root string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{root: root, logger: logger}
}

// Available reports whether the git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// ChangedFiles lists the slash-separated paths changed in diffRange.
// Use Cached for staged changes.
func (c *Client) ChangedFiles(ctx context.Context, diffRange string) ([]string, error) {
	if diffRange == "" {
		diffRange = DefaultRange
	}
	if err := ValidateRange(diffRange); err != nil {
		return nil, err
	}

	out, err := c.run(ctx, "diff", "--name-only", diffRange)
	if err != nil {
		return nil, fmt.Errorf("listing changed files for %s: %w", diffRange, err)
	}
	if out == "" {
		return []string{}, nil
	}

	lines := strings.Split(out, "\n")
	files := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			files = append(files, strings.ReplaceAll(l, `\`, "/"))
		}
	}
	c.logger.Debug("git diff", slog.String("range", diffRange), slog.Int("files", len(files)))
	return files, nil
}

// Log returns `git log --oneline` for diffRange limited to paths.
func (c *Client) Log(ctx context.Context, diffRange string, paths ...string) (string, error) {
	if diffRange == "" {
		diffRange = DefaultRange
	}
	if diffRange == Cached {
		return "", fmt.Errorf("log: staged changes have no history")
	}
	if err := ValidateRange(diffRange); err != nil {
		return "", err
	}

	args := []string{"log", "--oneline", diffRange}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("reading log for %s: %w", diffRange, err)
	}
	return out, nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", c.root}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
