package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

// State is where HEAD pointed when it was captured.
type State struct {
	CommitSHA string
	// Branch is the short branch name, or "detached".
	Branch     string
	CapturedAt time.Time
}

// ShortSHA returns the first seven characters of the commit hash.
func (s State) ShortSHA() string {
	if len(s.CommitSHA) > 7 {
		return s.CommitSHA[:7]
	}
	return s.CommitSHA
}

// CaptureState reads HEAD of the repository containing path without
// invoking the git binary.
func CaptureState(path string) (*State, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("getting HEAD reference: %w", err)
	}

	state := &State{
		CommitSHA:  head.Hash().String(),
		Branch:     "detached",
		CapturedAt: time.Now().UTC(),
	}
	if head.Name().IsBranch() {
		state.Branch = head.Name().Short()
	}
	return state, nil
}
