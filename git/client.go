// Package git adapts a local git repository to the gitscribe.VCS
// interface. Diff queries shell out to the git command-line tool, whose
// porcelain output formats are stable; repository metadata (head, remotes,
// user identity) comes from go-git so that no extra processes are spawned
// for simple lookups.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"

	"github.com/gitscribe/gitscribe"
)

// Compile-time interface verification.
var _ gitscribe.VCS = (*Client)(nil)

// Client provides read access to a single repository. It is safe for
// concurrent use; every method issues independent queries.
type Client struct {
	root string
	repo *gogit.Repository
}

// Open locates the repository containing path, walking up parent
// directories the way git itself does. A path outside any repository
// returns an error marked gitscribe.ErrInvalidRepository.
func Open(path string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "open repository at %s", path),
			gitscribe.ErrInvalidRepository)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Mark(
			errors.Wrap(err, "resolve worktree"),
			gitscribe.ErrInvalidRepository)
	}
	return &Client{root: wt.Filesystem.Root(), repo: repo}, nil
}

// Root returns the absolute path of the repository worktree.
func (c *Client) Root() string {
	return c.root
}

// CurrentBranch returns the short name of the checked-out branch. A
// detached head is an error.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", errors.Wrap(err, "resolve HEAD")
	}
	if !head.Name().IsBranch() {
		return "", errors.Newf("detached head at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// HeadCommit returns the message and author of the commit at HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", "", errors.Wrap(err, "resolve HEAD")
	}
	commit, err := c.repo.CommitObject(head.Hash())
	if err != nil {
		return "", "", errors.Wrapf(err, "load commit %s", head.Hash())
	}
	author := commit.Author.Name
	if commit.Author.Email != "" {
		author += " <" + commit.Author.Email + ">"
	}
	return commit.Message, author, nil
}

// RemoteURL returns the name and first URL of the origin remote, falling
// back to any configured remote when origin is absent.
func (c *Client) RemoteURL(ctx context.Context) (string, string, error) {
	remotes, err := c.repo.Remotes()
	if err != nil {
		return "", "", errors.Wrap(err, "list remotes")
	}
	if len(remotes) == 0 {
		return "", "", errors.New("no remotes configured")
	}
	chosen := remotes[0].Config()
	for _, remote := range remotes {
		if remote.Config().Name == "origin" {
			chosen = remote.Config()
			break
		}
	}
	if len(chosen.URLs) == 0 {
		return "", "", errors.Newf("remote %s has no URL", chosen.Name)
	}
	return chosen.Name, chosen.URLs[0], nil
}

// User returns the configured author identity, merged across the
// repository, global and system configuration scopes.
func (c *Client) User(ctx context.Context) (string, string, error) {
	cfg, err := c.repo.ConfigScoped(config.SystemScope)
	if err != nil {
		return "", "", errors.Wrap(err, "load configuration")
	}
	return cfg.User.Name, cfg.User.Email, nil
}

// ReadFile reads a worktree file by repository-relative path.
func (c *Client) ReadFile(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(c.root, relPath))
}

// StagedEntries lists the files in the index that differ from HEAD, with
// rename and copy detection, including each file's staged patch.
func (c *Client) StagedEntries(ctx context.Context) ([]gitscribe.StagedEntry, error) {
	out, err := c.run(ctx, "diff", "--cached", "--name-status", "-M", "-C")
	if err != nil {
		return nil, err
	}
	entries, err := ParseNameStatus(out)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		patch, err := c.run(ctx, "diff", "--cached", "-M", "-C", "--", entries[i].Path)
		if err != nil {
			return nil, err
		}
		entries[i].Patch = patch
	}
	return entries, nil
}

// UntrackedFiles lists working-tree files not yet known to the index,
// honoring ignore rules.
func (c *Client) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Fetch updates the named branch from the named remote.
func (c *Client) Fetch(ctx context.Context, remote, branch string) error {
	_, err := c.run(ctx, "fetch", remote, branch)
	return err
}

// HasRef reports whether ref resolves to an object.
func (c *Client) HasRef(ctx context.Context, ref string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", c.root,
		"rev-parse", "--verify", "--quiet", ref)
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, errors.Wrap(err, "git rev-parse failed")
	}
	return true, nil
}

// DiffNumstat returns per-file line counts for baseRef...HEAD, the
// changes on the current branch since it diverged from the base.
func (c *Client) DiffNumstat(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
	out, err := c.run(ctx, "diff", "--numstat", baseRef+"...HEAD")
	if err != nil {
		return nil, err
	}
	return ParseNumstat(out)
}

// DiffStatus returns the change kind of a single file in baseRef...HEAD.
func (c *Client) DiffStatus(ctx context.Context, baseRef, relPath string) (gitscribe.ChangeKind, error) {
	out, err := c.run(ctx, "diff", "--name-status", baseRef+"...HEAD", "--", relPath)
	if err != nil {
		return gitscribe.Unknown, err
	}
	lines := splitLines(out)
	if len(lines) == 0 {
		return gitscribe.Unknown, errors.Newf("no status for %s", relPath)
	}
	return gitscribe.ParseChangeKind(lines[0][0])
}

// DiffPatch returns the unified diff of a single file in baseRef...HEAD.
func (c *Client) DiffPatch(ctx context.Context, baseRef, relPath string) (string, error) {
	return c.run(ctx, "diff", baseRef+"...HEAD", "--", relPath)
}

// DiffPatchAll returns the full unified diff of baseRef...HEAD.
func (c *Client) DiffPatchAll(ctx context.Context, baseRef string) (string, error) {
	return c.run(ctx, "diff", baseRef+"...HEAD")
}

// CommitCount returns the number of commits on HEAD that are not
// reachable from baseRef.
func (c *Client) CommitCount(ctx context.Context, baseRef string) (int, error) {
	out, err := c.run(ctx, "rev-list", "--count", baseRef+"..HEAD")
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, errors.Wrapf(err, "parse commit count %q", strings.TrimSpace(out))
	}
	return count, nil
}

// Commit records the staged index as a new commit with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	_, err := c.run(ctx, "commit", "-m", message)
	return err
}

// run executes a git subcommand against the repository and returns its
// standard output. Failures surface git's own stderr text.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", c.root}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", errors.Newf("git %s failed: %s",
				args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", errors.Wrapf(err, "git %s failed", args[0])
	}
	return string(output), nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
