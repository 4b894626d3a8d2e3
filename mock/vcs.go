// Package mock provides function-field mock implementations of the
// gitscribe interfaces for tests.
package mock

import (
	"context"

	"github.com/gitscribe/gitscribe"
)

// Compile-time interface verification.
var _ gitscribe.VCS = (*VCS)(nil)

// VCS is a mock implementation of gitscribe.VCS. Methods whose Fn field is
// nil return zero values, so tests only set what they exercise.
type VCS struct {
	RootFn           func() string
	CurrentBranchFn  func(ctx context.Context) (string, error)
	HeadCommitFn     func(ctx context.Context) (string, string, error)
	RemoteURLFn      func(ctx context.Context) (string, string, error)
	UserFn           func(ctx context.Context) (string, string, error)
	StagedEntriesFn  func(ctx context.Context) ([]gitscribe.StagedEntry, error)
	UntrackedFilesFn func(ctx context.Context) ([]string, error)
	ReadFileFn       func(relPath string) ([]byte, error)
	FetchFn          func(ctx context.Context, remote, branch string) error
	HasRefFn         func(ctx context.Context, ref string) (bool, error)
	DiffNumstatFn    func(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error)
	DiffStatusFn     func(ctx context.Context, baseRef, relPath string) (gitscribe.ChangeKind, error)
	DiffPatchFn      func(ctx context.Context, baseRef, relPath string) (string, error)
	CommitCountFn    func(ctx context.Context, baseRef string) (int, error)
}

func (v *VCS) Root() string {
	if v.RootFn != nil {
		return v.RootFn()
	}
	return "/repo"
}

func (v *VCS) CurrentBranch(ctx context.Context) (string, error) {
	if v.CurrentBranchFn != nil {
		return v.CurrentBranchFn(ctx)
	}
	return "", nil
}

func (v *VCS) HeadCommit(ctx context.Context) (string, string, error) {
	if v.HeadCommitFn != nil {
		return v.HeadCommitFn(ctx)
	}
	return "", "", nil
}

func (v *VCS) RemoteURL(ctx context.Context) (string, string, error) {
	if v.RemoteURLFn != nil {
		return v.RemoteURLFn(ctx)
	}
	return "", "", nil
}

func (v *VCS) User(ctx context.Context) (string, string, error) {
	if v.UserFn != nil {
		return v.UserFn(ctx)
	}
	return "", "", nil
}

func (v *VCS) StagedEntries(ctx context.Context) ([]gitscribe.StagedEntry, error) {
	if v.StagedEntriesFn != nil {
		return v.StagedEntriesFn(ctx)
	}
	return nil, nil
}

func (v *VCS) UntrackedFiles(ctx context.Context) ([]string, error) {
	if v.UntrackedFilesFn != nil {
		return v.UntrackedFilesFn(ctx)
	}
	return nil, nil
}

func (v *VCS) ReadFile(relPath string) ([]byte, error) {
	if v.ReadFileFn != nil {
		return v.ReadFileFn(relPath)
	}
	return nil, nil
}

func (v *VCS) Fetch(ctx context.Context, remote, branch string) error {
	if v.FetchFn != nil {
		return v.FetchFn(ctx, remote, branch)
	}
	return nil
}

func (v *VCS) HasRef(ctx context.Context, ref string) (bool, error) {
	if v.HasRefFn != nil {
		return v.HasRefFn(ctx, ref)
	}
	return false, nil
}

func (v *VCS) DiffNumstat(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
	if v.DiffNumstatFn != nil {
		return v.DiffNumstatFn(ctx, baseRef)
	}
	return nil, nil
}

func (v *VCS) DiffStatus(ctx context.Context, baseRef, relPath string) (gitscribe.ChangeKind, error) {
	if v.DiffStatusFn != nil {
		return v.DiffStatusFn(ctx, baseRef, relPath)
	}
	return gitscribe.Modified, nil
}

func (v *VCS) DiffPatch(ctx context.Context, baseRef, relPath string) (string, error) {
	if v.DiffPatchFn != nil {
		return v.DiffPatchFn(ctx, baseRef, relPath)
	}
	return "", nil
}

func (v *VCS) CommitCount(ctx context.Context, baseRef string) (int, error) {
	if v.CommitCountFn != nil {
		return v.CommitCountFn(ctx, baseRef)
	}
	return 0, nil
}
