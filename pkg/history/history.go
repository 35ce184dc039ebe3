// Package history reads commit sequences out of local git repositories
// and shapes them for the lanes engine: newest first, one entry per
// row, with an optional synthetic working-tree row on top.
package history

import (
	"context"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lanes"
)

// WorkTreeID is the commit id of the synthetic row representing
// uncommitted changes. It can never collide with a real hash.
const WorkTreeID = "WORKTREE"

// Entry pairs a layout input commit with the display metadata a
// renderer puts next to the graph gutter.
type Entry struct {
	Commit  lanes.Commit `json:"commit" bson:"commit"`
	Summary string       `json:"summary" bson:"summary"`
	Author  string       `json:"author" bson:"author"`
	When    time.Time    `json:"when" bson:"when"`
}

// Options controls how much history a Log call reads.
type Options struct {
	// MaxCommits bounds the window size. Zero means unbounded.
	MaxCommits int

	// IncludeWorkingTree prepends a synthetic uncommitted row when the
	// working tree is dirty. With a clean tree the HEAD row is marked
	// current instead.
	IncludeWorkingTree bool
}

// Repo wraps an opened git repository. go-git packfile access is not
// safe for concurrent readers, so all object reads go through one
// mutex.
type Repo struct {
	repo *gogit.Repository
	mu   sync.Mutex
}

// Open opens the repository containing path, walking up to find the
// .git directory the way the git CLI does.
func Open(path string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRepoNotFound, err, "open repository at %s", path)
	}
	return &Repo{repo: repo}, nil
}

// NewRepo wraps an already-opened repository. Used by tests and by
// callers that build repositories in memory.
func NewRepo(repo *gogit.Repository) *Repo {
	return &Repo{repo: repo}
}

// Log reads the commit window for the graph: all refs, newest first by
// committer time, corrected so no parent sits above a descendant when
// clocks were skewed. The second return value reports whether more
// history exists below the window, which callers feed into the layout
// pass as HasMore.
func (r *Repo) Log(ctx context.Context, opts Options) ([]Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.repo.Head()
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeRepoNotFound, err, "resolve HEAD")
	}

	iter, err := r.repo.Log(&gogit.LogOptions{
		All:   true,
		Order: gogit.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeInternal, err, "walk history")
	}
	defer iter.Close()

	var entries []Entry
	hasMore := false
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.MaxCommits > 0 && len(entries) >= opts.MaxCommits {
			hasMore = true
			return storer.ErrStop
		}
		entries = append(entries, toEntry(c, head.Hash()))
		return nil
	})
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeInternal, err, "walk history")
	}
	entries = orderParentsAfterChildren(entries)

	if opts.IncludeWorkingTree {
		entries, err = r.withWorkingTree(entries, head.Hash())
		if err != nil {
			return nil, false, err
		}
	}
	return entries, hasMore, nil
}

// ResolveHead resolves a revision (branch name, tag, hash prefix) to a
// full commit id for use as a merge preview head.
func (r *Repo) ResolveHead(rev string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeUnknownHead, err, "resolve revision %q", rev)
	}
	return hash.String(), nil
}

// Branches lists local branch names with their tip commit ids.
func (r *Repo) Branches() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iter, err := r.repo.Branches()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "list branches")
	}
	defer iter.Close()

	out := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		out[ref.Name().Short()] = ref.Hash().String()
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "list branches")
	}
	return out, nil
}

// withWorkingTree prepends the synthetic uncommitted row when the tree
// is dirty. The caller holds the repo mutex.
func (r *Repo) withWorkingTree(entries []Entry, head plumbing.Hash) ([]Entry, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		// Bare repositories have no working tree to report on.
		if err == gogit.ErrIsBareRepository {
			return entries, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "open working tree")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read working tree status")
	}
	if status.IsClean() {
		return entries, nil
	}

	// The current marker moves from HEAD to the synthetic row.
	for i := range entries {
		entries[i].Commit.IsCurrent = false
	}
	wip := Entry{
		Commit: lanes.Commit{
			ID:        WorkTreeID,
			Parents:   []string{head.String()},
			IsCurrent: true,
		},
		Summary: "uncommitted changes",
		When:    time.Now(),
	}
	return append([]Entry{wip}, entries...), nil
}

// orderParentsAfterChildren repairs the committer-time order for clock
// skew: a commit listed above one of its in-window descendants is moved
// below it. The result keeps the walk order wherever it was already
// valid, so well-formed windows come back untouched.
func orderParentsAfterChildren(entries []Entry) []Entry {
	pos := make(map[string]int, len(entries))
	for i, e := range entries {
		pos[e.Commit.ID] = i
	}
	valid := true
	for i, e := range entries {
		for _, p := range e.Commit.Parents {
			if j, ok := pos[p]; ok && j <= i {
				valid = false
			}
		}
	}
	if valid {
		return entries
	}

	// Emit in walk order, holding each commit back until every child of
	// it inside the window is out.
	blocked := make(map[string]int, len(entries))
	for _, e := range entries {
		for _, p := range e.Commit.Parents {
			if _, ok := pos[p]; ok {
				blocked[p]++
			}
		}
	}
	out := make([]Entry, 0, len(entries))
	emitted := make([]bool, len(entries))
	for len(out) < len(entries) {
		next := -1
		for i, e := range entries {
			if !emitted[i] && blocked[e.Commit.ID] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			// Parent cycle: impossible in a real repository. Keep the
			// walk order for whatever remains rather than loop forever.
			for i, e := range entries {
				if !emitted[i] {
					out = append(out, e)
				}
			}
			return out
		}
		emitted[next] = true
		out = append(out, entries[next])
		for _, p := range entries[next].Commit.Parents {
			if _, ok := pos[p]; ok {
				blocked[p]--
			}
		}
	}
	return out
}

func toEntry(c *object.Commit, head plumbing.Hash) Entry {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Entry{
		Commit: lanes.Commit{
			ID:          c.Hash.String(),
			Parents:     parents,
			IsCommitted: true,
			IsCurrent:   c.Hash == head,
		},
		Summary: firstLine(c.Message),
		Author:  c.Author.Name,
		When:    c.Committer.When,
	}
}

// Commits strips entries down to the layout engine's input shape.
func Commits(entries []Entry) []lanes.Commit {
	out := make([]lanes.Commit, len(entries))
	for i, e := range entries {
		out[i] = e.Commit
	}
	return out
}

// LayoutOptions derives the engine options matching a history window:
// the seed id when a working-tree row is present and the HasMore flag
// from the walk.
func LayoutOptions(entries []Entry, hasMore bool, paletteSize int) lanes.Options {
	opts := lanes.Options{PaletteSize: paletteSize, HasMore: hasMore}
	if len(entries) > 0 && entries[0].Commit.ID == WorkTreeID {
		opts.SeedUncommittedID = WorkTreeID
	}
	return opts
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
