package ps

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"

	"github.com/nickyhof/tike/core"
)

// History is a git repository holding one snapshot commit per change. Each
// commit's tree is flat: one file per table.
type History struct {
	repo *git.Repository
}

func NewMemoryHistory() (*History, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, fmt.Errorf("failed to init history: %w", err)
	}

	return &History{repo: repo}, nil
}

// NewFileHistory opens the repository under baseDir, initializing it on
// first use.
func NewFileHistory(baseDir string) (*History, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", baseDir, err)
	}

	return &History{repo: repo}, nil
}

// Snapshot stores files at the root of a new commit, replacing files of the
// same name and keeping the rest. If nothing changed the latest transaction
// is returned and no commit is made.
func (history *History) Snapshot(files map[string][]byte, identity core.Identity, message string) (Transaction, error) {
	currentTree, err := history.currentTree()
	if err != nil {
		return Transaction{}, err
	}

	entries, err := history.treeEntries(currentTree)
	if err != nil {
		return Transaction{}, err
	}

	for name, data := range files {
		if err := validateFileName(name); err != nil {
			return Transaction{}, err
		}
		blobHash, err := history.createBlob(data)
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to create blob for %s: %w", name, err)
		}
		entries[name] = object.TreeEntry{
			Name: name,
			Mode: filemode.Regular,
			Hash: blobHash,
		}
	}

	newTree, err := history.buildTree(entries)
	if err != nil {
		return Transaction{}, err
	}

	if newTree == currentTree {
		return history.LatestTransaction(), nil
	}

	return history.createCommit(newTree, identity, message)
}

func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid snapshot file name %q", core.ErrInvalidInput, name)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return fmt.Errorf("%w: snapshot file %q must not contain a path separator", core.ErrInvalidInput, name)
		}
	}
	return nil
}

// createBlob creates a blob object directly in the object store without filesystem I/O
func (history *History) createBlob(data []byte) (plumbing.Hash, error) {
	obj := history.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := history.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}

	return hash, nil
}

// currentTree returns the tree hash from the current HEAD commit.
// Returns ZeroHash if the repository has no commits yet.
func (history *History) currentTree() (plumbing.Hash, error) {
	headRef, err := history.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, nil
	}

	commit, err := history.repo.CommitObject(headRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get head commit: %w", err)
	}

	return commit.TreeHash, nil
}

func (history *History) treeEntries(treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)

	if treeHash == plumbing.ZeroHash {
		return entries, nil
	}

	tree, err := object.GetTree(history.repo.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}

	return entries, nil
}

func (history *History) buildTree(entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	entrySlice := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		entrySlice = append(entrySlice, entry)
	}
	// Git requires entries sorted by name; the tree is flat so no
	// directory suffix rule applies.
	sort.Slice(entrySlice, func(i, j int) bool {
		return entrySlice[i].Name < entrySlice[j].Name
	})

	tree := &object.Tree{Entries: entrySlice}

	obj := history.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := history.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}

	return hash, nil
}

// createCommit creates a commit object directly without using the worktree
// and moves the current branch to it.
func (history *History) createCommit(treeHash plumbing.Hash, identity core.Identity, message string) (Transaction, error) {
	var parentHashes []plumbing.Hash
	headRef, err := history.repo.Head()
	if err == nil {
		parentHashes = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  identity.Name,
		Email: identity.Email,
		When:  time.Now(),
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parentHashes,
	}

	obj := history.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return Transaction{}, fmt.Errorf("failed to encode commit: %w", err)
	}

	commitHash, err := history.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store commit: %w", err)
	}

	branchName := plumbing.Master
	if headRef != nil && headRef.Name().IsBranch() {
		branchName = headRef.Name()
	}

	ref := plumbing.NewHashReference(branchName, commitHash)
	if err := history.repo.Storer.SetReference(ref); err != nil {
		return Transaction{}, fmt.Errorf("failed to update HEAD: %w", err)
	}

	return Transaction{
		Id:      commitHash.String(),
		When:    sig.When,
		Author:  formatAuthor(sig),
		Message: message,
	}, nil
}
