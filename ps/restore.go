package ps

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/nickyhof/tike/core"
)

// Files returns every file stored by the snapshot id names. id may be a full
// commit id, a unique prefix of one, or a tag.
func (history *History) Files(id string) (Transaction, map[string][]byte, error) {
	commit, err := history.resolve(id)
	if err != nil {
		return Transaction{}, nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return Transaction{}, nil, fmt.Errorf("failed to get tree: %w", err)
	}

	files := make(map[string][]byte)
	err = tree.Files().ForEach(func(f *object.File) error {
		reader, err := f.Reader()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		files[f.Name] = data
		return nil
	})
	if err != nil {
		return Transaction{}, nil, err
	}

	return transactionOf(commit), files, nil
}

// Tag names a snapshot. A nil asof tags the latest one.
func (history *History) Tag(name string, asof *Transaction) error {
	if asof != nil {
		commit, err := history.resolve(asof.Id)
		if err != nil {
			return err
		}
		_, err = history.repo.CreateTag(name, commit.Hash, nil)
		return err
	}

	headRef, err := history.repo.Head()
	if err != nil {
		return fmt.Errorf("%w: no snapshots to tag", core.ErrNotFound)
	}

	_, err = history.repo.CreateTag(name, headRef.Hash(), nil)
	return err
}

// Tags lists snapshot names.
func (history *History) Tags() ([]string, error) {
	iter, err := history.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags := []string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	return tags, err
}
