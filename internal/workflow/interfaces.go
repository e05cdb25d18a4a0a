// Package workflow runs the validation pipeline: scan, parse, schema
// validation, reference checks, optional registry write and freshness check,
// optional change report and drift evaluation, all accumulated into one report.
package workflow

import (
	"context"

	"github.com/docgov/docgov/internal/drift"
	"github.com/docgov/docgov/internal/progress"
)

// VCS is the version-control collaborator used for drift checks and the
// change report. *git.Client implements it.
type VCS interface {
	drift.ChangeSource
	Log(ctx context.Context, diffRange string, paths ...string) (string, error)
}

// Progress receives stage transitions. *progress.Display implements it.
type Progress interface {
	StartStage(stage progress.StageInfo) error
	CompleteStage(stage progress.StageInfo) error
	FailStage(stage progress.StageInfo, err error) error
}

type nopProgress struct{}

func (nopProgress) StartStage(progress.StageInfo) error       { return nil }
func (nopProgress) CompleteStage(progress.StageInfo) error    { return nil }
func (nopProgress) FailStage(progress.StageInfo, error) error { return nil }
