package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docgov/docgov/internal/drift"
	"github.com/docgov/docgov/internal/git"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/schema"
)

// ValidateInput is the input schema for validate_docs.
type ValidateInput struct {
	Profile       string `json:"profile,omitempty" jsonschema:"schema profile: strict or minimal (default from config)"`
	Strict        bool   `json:"strict,omitempty" jsonschema:"treat warnings as failures"`
	CheckRegistry bool   `json:"check_registry,omitempty" jsonschema:"compare the registry file on disk with the current scan"`
}

// FindingOutput is one finding in a tool result.
type FindingOutput struct {
	Level   string `json:"level"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ValidateOutput is the output schema for validate_docs.
type ValidateOutput struct {
	Status    int             `json:"status"`
	Scanned   int             `json:"scanned"`
	Validated int             `json:"validated"`
	Errors    int             `json:"errors"`
	Warnings  int             `json:"warnings"`
	Infos     int             `json:"infos"`
	Findings  []FindingOutput `json:"findings"`
}

// NextIDInput is the input schema for next_doc_id.
type NextIDInput struct {
	Prefix string `json:"prefix" jsonschema:"document id prefix, for example ADR or SPEC"`
}

// NextIDOutput is the output schema for next_doc_id.
type NextIDOutput struct {
	ID string `json:"id"`
}

// DriftInput is the input schema for check_drift.
type DriftInput struct {
	DiffRange string `json:"diff_range,omitempty" jsonschema:"git diff range, for example origin/main...HEAD, or --cached for staged changes (default from config)"`
}

// DriftOutput is the output schema for check_drift.
type DriftOutput struct {
	DiffRange string          `json:"diff_range"`
	Count     int             `json:"count"`
	Findings  []FindingOutput `json:"findings"`
}

// ErrMissingPrefix is returned by next_doc_id without a prefix.
var ErrMissingPrefix = errors.New("prefix is required")

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_docs",
		Description: "Validate document frontmatter, references and registry freshness",
	}, s.handleValidate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "next_doc_id",
		Description: "Return the next free document id for a prefix",
	}, s.handleNextID)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_drift",
		Description: "Evaluate drift rules against the files changed in a git diff range",
	}, s.handleDrift)
}

func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	opts := s.base
	opts.WriteRegistry = false
	opts.FixTODOIDs = false
	opts.ChangeReport = false
	opts.CheckDrift = false
	opts.Summary = false
	opts.CheckRegistry = opts.CheckRegistry || input.CheckRegistry
	if input.Profile != "" {
		profile, err := schema.ParseProfile(input.Profile)
		if err != nil {
			return nil, ValidateOutput{}, err
		}
		opts.Profile = profile
	}

	res, err := s.runner.Run(ctx, opts)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	rep := res.Report
	s.logger.Debug("mcp: validate_docs", slog.Int("findings", len(rep.Findings())))
	return nil, ValidateOutput{
		Status:    rep.Status(input.Strict),
		Scanned:   rep.Scanned,
		Validated: rep.Validated,
		Errors:    len(rep.Errors()),
		Warnings:  len(rep.Warnings()),
		Infos:     len(rep.Infos()),
		Findings:  findings(rep.Findings()),
	}, nil
}

func (s *Server) handleNextID(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input NextIDInput,
) (*mcp.CallToolResult, NextIDOutput, error) {
	prefix := strings.TrimSpace(input.Prefix)
	if prefix == "" {
		return nil, NextIDOutput{}, ErrMissingPrefix
	}
	id, err := s.runner.NextID(s.base, prefix)
	if err != nil {
		return nil, NextIDOutput{}, err
	}
	s.logger.Debug("mcp: next_doc_id", slog.String("id", id))
	return nil, NextIDOutput{ID: id}, nil
}

func (s *Server) handleDrift(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DriftInput,
) (*mcp.CallToolResult, DriftOutput, error) {
	diffRange := input.DiffRange
	if diffRange == "" {
		diffRange = s.base.DiffRange
	}
	if diffRange == "" {
		diffRange = git.DefaultRange
	}
	if err := git.ValidateRange(diffRange); err != nil {
		return nil, DriftOutput{}, err
	}

	root := s.base.Root
	if root == "" {
		root = "."
	}
	rulesPath := s.base.RulesPath
	if rulesPath == "" {
		rulesPath = drift.DefaultPath
	}
	got := drift.Check(ctx, s.changes(root), diffRange, resolve(root, rulesPath))
	s.logger.Debug("mcp: check_drift", slog.String("range", diffRange), slog.Int("findings", len(got)))
	return nil, DriftOutput{DiffRange: diffRange, Count: len(got), Findings: findings(got)}, nil
}

func findings(in []report.Finding) []FindingOutput {
	out := make([]FindingOutput, len(in))
	for i, f := range in {
		out[i] = FindingOutput{Level: strings.ToLower(f.Level.String()), Subject: f.Subject, Message: f.Message}
	}
	return out
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
