package ps

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/nickyhof/tike/core"
)

type Transaction struct {
	Id      string
	When    time.Time
	Author  string // "Name <email>" format
	Message string
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

// ShortId returns the abbreviated commit id shown to users.
func (transaction Transaction) ShortId() string {
	if len(transaction.Id) > 7 {
		return transaction.Id[:7]
	}
	return transaction.Id
}

func formatAuthor(sig object.Signature) string {
	if sig.Name == "" && sig.Email == "" {
		return ""
	}
	return fmt.Sprintf("%s <%s>", sig.Name, sig.Email)
}

func transactionOf(c *object.Commit) Transaction {
	return Transaction{
		Id:      c.Hash.String(),
		When:    c.Committer.When,
		Author:  formatAuthor(c.Author),
		Message: strings.TrimSpace(c.Message),
	}
}

func (history *History) LatestTransaction() Transaction {
	headRef, err := history.repo.Head()
	if err != nil || headRef == nil {
		// No commits yet
		return Transaction{}
	}

	commit, err := history.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Transaction{}
	}

	return transactionOf(commit)
}

// Transactions lists every snapshot reachable from HEAD, newest first.
func (history *History) Transactions() ([]Transaction, error) {
	if _, err := history.repo.Head(); err != nil {
		// No commits yet
		return []Transaction{}, nil
	}

	cIter, err := history.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	transactions := []Transaction{}
	err = cIter.ForEach(func(c *object.Commit) error {
		transactions = append(transactions, transactionOf(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return transactions, nil
}

// TransactionsSince lists snapshots committed at or after asof.
func (history *History) TransactionsSince(asof time.Time) ([]Transaction, error) {
	all, err := history.Transactions()
	if err != nil {
		return nil, err
	}

	var transactions []Transaction
	for _, txn := range all {
		if !txn.When.Before(asof) {
			transactions = append(transactions, txn)
		}
	}
	return transactions, nil
}

// resolve finds the commit named by a full id, a unique id prefix or a tag.
func (history *History) resolve(id string) (*object.Commit, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty transaction id", core.ErrInvalidInput)
	}

	if ref, err := history.repo.Tag(id); err == nil {
		return history.repo.CommitObject(ref.Hash())
	}

	if len(id) == 40 {
		commit, err := history.repo.CommitObject(plumbing.NewHash(id))
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %s: %w", core.ErrNotFound, id, err)
		}
		return commit, nil
	}

	cIter, err := history.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
	}

	var found *object.Commit
	err = cIter.ForEach(func(c *object.Commit) error {
		if !strings.HasPrefix(c.Hash.String(), id) {
			return nil
		}
		if found != nil {
			return fmt.Errorf("%w: transaction id %s is ambiguous", core.ErrInvalidInput, id)
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
	}
	return found, nil
}
