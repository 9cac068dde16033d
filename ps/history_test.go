package ps

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"

	"github.com/nickyhof/tike/core"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	history, err := NewMemoryHistory()
	if err != nil {
		t.Fatalf("Failed to create history: %v", err)
	}
	return history
}

func TestSnapshotAndFiles(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	txn, err := history.Snapshot(map[string][]byte{
		"tasks.jsonl":          []byte(`{"id":1,"title":"Buy milk"}` + "\n"),
		"completedTasks.jsonl": nil,
	}, identity, "Adding task")
	if err != nil {
		t.Fatalf("Failed to snapshot: %v", err)
	}
	if txn.Id == "" {
		t.Fatal("Expected transaction ID to be set")
	}
	if txn.Author != "test <test@test.com>" {
		t.Errorf("Unexpected author %q", txn.Author)
	}

	got, files, err := history.Files(txn.ShortId())
	if err != nil {
		t.Fatalf("Failed to read files: %v", err)
	}
	if got.Id != txn.Id {
		t.Errorf("Expected %s, got %s", txn.Id, got.Id)
	}
	if string(files["tasks.jsonl"]) != `{"id":1,"title":"Buy milk"}`+"\n" {
		t.Errorf("Unexpected tasks file: %q", files["tasks.jsonl"])
	}
	if _, ok := files["completedTasks.jsonl"]; !ok {
		t.Error("Expected empty completedTasks file to be stored")
	}
}

func TestSnapshotWithoutChangesIsNoop(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}
	files := map[string][]byte{"tasks.jsonl": []byte("a\n")}

	first, err := history.Snapshot(files, identity, "first")
	if err != nil {
		t.Fatalf("Failed to snapshot: %v", err)
	}
	second, err := history.Snapshot(files, identity, "second")
	if err != nil {
		t.Fatalf("Failed to snapshot: %v", err)
	}
	if first.Id != second.Id {
		t.Errorf("Expected no new commit, got %s after %s", second.Id, first.Id)
	}

	transactions, err := history.Transactions()
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(transactions))
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	empty, err := history.Transactions()
	if err != nil {
		t.Fatalf("Failed to list empty history: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no transactions, got %d", len(empty))
	}

	for i, body := range []string{"one\n", "two\n", "three\n"} {
		if _, err := history.Snapshot(map[string][]byte{"t.jsonl": []byte(body)}, identity, body[:len(body)-1]); err != nil {
			t.Fatalf("Snapshot %d failed: %v", i, err)
		}
	}

	transactions, err := history.Transactions()
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(transactions))
	}
	if transactions[0].Message != "three" || transactions[2].Message != "one" {
		t.Errorf("Unexpected order: %v", transactions)
	}
	if history.LatestTransaction().Id != transactions[0].Id {
		t.Error("Expected latest transaction to head the list")
	}

	_, files, err := history.Files(transactions[2].Id)
	if err != nil {
		t.Fatalf("Failed to read oldest snapshot: %v", err)
	}
	if string(files["t.jsonl"]) != "one\n" {
		t.Errorf("Expected oldest contents, got %q", files["t.jsonl"])
	}
}

func TestSnapshotKeepsOtherFiles(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	if _, err := history.Snapshot(map[string][]byte{"a.jsonl": []byte("a\n")}, identity, "a"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	txn, err := history.Snapshot(map[string][]byte{"b.jsonl": []byte("b\n")}, identity, "b")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	_, files, err := history.Files(txn.Id)
	if err != nil {
		t.Fatalf("Failed to read files: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected both files, got %v", files)
	}
}

func TestSnapshotRejectsPaths(t *testing.T) {
	history := newTestHistory(t)
	_, err := history.Snapshot(map[string][]byte{"dir/t.jsonl": nil}, core.Identity{}, "bad")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestFilesUnknownTransaction(t *testing.T) {
	history := newTestHistory(t)
	if _, err := history.Snapshot(map[string][]byte{"t.jsonl": nil}, core.Identity{}, "x"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	_, _, err := history.Files("0000000")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	_, _, err = history.Files("")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTag(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	if err := history.Tag("empty", nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound tagging empty history, got %v", err)
	}

	first, err := history.Snapshot(map[string][]byte{"t.jsonl": []byte("1\n")}, identity, "first")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, err := history.Snapshot(map[string][]byte{"t.jsonl": []byte("2\n")}, identity, "second"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if err := history.Tag("v1", &first); err != nil {
		t.Fatalf("Failed to tag: %v", err)
	}
	if err := history.Tag("latest", nil); err != nil {
		t.Fatalf("Failed to tag head: %v", err)
	}

	tags, err := history.Tags()
	if err != nil {
		t.Fatalf("Failed to list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", tags)
	}

	_, files, err := history.Files("v1")
	if err != nil {
		t.Fatalf("Failed to read tagged snapshot: %v", err)
	}
	if string(files["t.jsonl"]) != "1\n" {
		t.Errorf("Expected tagged contents, got %q", files["t.jsonl"])
	}
}

func TestFileHistoryReopens(t *testing.T) {
	dir := t.TempDir()
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	history, err := NewFileHistory(dir)
	if err != nil {
		t.Fatalf("Failed to create file history: %v", err)
	}
	txn, err := history.Snapshot(map[string][]byte{"t.jsonl": []byte("x\n")}, identity, "x")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	reopened, err := NewFileHistory(dir)
	if err != nil {
		t.Fatalf("Failed to reopen history: %v", err)
	}
	if reopened.LatestTransaction().Id != txn.Id {
		t.Errorf("Expected %s after reopening, got %s", txn.Id, reopened.LatestTransaction().Id)
	}
}

func TestRemotes(t *testing.T) {
	history := newTestHistory(t)

	if err := history.AddRemote("origin", "https://example.com/tasks.git"); err != nil {
		t.Fatalf("Failed to add remote: %v", err)
	}
	if err := history.AddRemote("origin", "https://example.com/tasks.git"); err != nil {
		t.Errorf("Expected re-adding same remote to succeed, got %v", err)
	}
	if err := history.AddRemote("origin", "https://example.com/other.git"); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for conflicting remote, got %v", err)
	}

	remotes, err := history.ListRemotes()
	if err != nil {
		t.Fatalf("Failed to list remotes: %v", err)
	}
	if len(remotes) != 1 || remotes[0].Name != "origin" {
		t.Errorf("Unexpected remotes: %v", remotes)
	}

	if err := history.Push("origin", nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound pushing empty history, got %v", err)
	}
}

func TestRemoteAuthValidate(t *testing.T) {
	tests := []struct {
		auth  *RemoteAuth
		valid bool
	}{
		{nil, true},
		{&RemoteAuth{Type: AuthTypeNone}, true},
		{&RemoteAuth{Type: AuthTypeToken, Token: "abc"}, true},
		{&RemoteAuth{Type: AuthTypeToken}, false},
		{&RemoteAuth{Type: AuthTypeBasic, Username: "u", Password: "p"}, true},
		{&RemoteAuth{Type: AuthTypeBasic}, false},
		{&RemoteAuth{Type: "kerberos"}, false},
	}

	for _, tt := range tests {
		err := tt.auth.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("%+v: expected valid=%v, got %v", tt.auth, tt.valid, err)
		}
	}
}

func TestPushToBareRemote(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	for i, content := range []string{"a\n", "b\n"} {
		if _, err := history.Snapshot(map[string][]byte{"tasks.jsonl": []byte(content)}, identity, fmt.Sprintf("snapshot %d", i)); err != nil {
			t.Fatalf("Failed to snapshot: %v", err)
		}
	}
	if err := history.Tag("v1", nil); err != nil {
		t.Fatalf("Failed to tag: %v", err)
	}
	head := history.LatestTransaction().Id

	dir := filepath.Join(t.TempDir(), "remote.git")
	if _, err := git.PlainInit(dir, true); err != nil {
		t.Fatalf("Failed to init bare remote: %v", err)
	}
	if err := history.AddRemote("origin", dir); err != nil {
		t.Fatalf("Failed to add remote: %v", err)
	}
	if err := history.Push("origin", nil); err != nil {
		t.Fatalf("Failed to push: %v", err)
	}

	remote, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("Failed to open remote: %v", err)
	}
	localHead, err := history.repo.Head()
	if err != nil {
		t.Fatalf("Failed to read local head: %v", err)
	}
	for _, name := range []plumbing.ReferenceName{localHead.Name(), plumbing.NewTagReferenceName("v1")} {
		ref, err := remote.Reference(name, true)
		if err != nil {
			t.Fatalf("Expected %s on remote: %v", name, err)
		}
		if ref.Hash().String() != head {
			t.Errorf("Expected %s at %s, got %s", name, head, ref.Hash())
		}
	}

	if err := history.Push("origin", nil); err != nil {
		t.Errorf("Expected second push to succeed, got %v", err)
	}
	if err := history.Push("", nil); err != nil {
		t.Errorf("Expected push to default remote to succeed, got %v", err)
	}
}

func TestTransactionsSince(t *testing.T) {
	history := newTestHistory(t)
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	for _, content := range []string{"a\n", "b\n"} {
		if _, err := history.Snapshot(map[string][]byte{"tasks.jsonl": []byte(content)}, identity, content); err != nil {
			t.Fatalf("Failed to snapshot: %v", err)
		}
	}

	tests := []struct {
		name  string
		asof  time.Time
		count int
	}{
		{"zero time", time.Time{}, 2},
		{"an hour ago", time.Now().Add(-time.Hour), 2},
		{"an hour ahead", time.Now().Add(time.Hour), 0},
	}
	for _, tt := range tests {
		got, err := history.TransactionsSince(tt.asof)
		if err != nil {
			t.Fatalf("%s: failed to list: %v", tt.name, err)
		}
		if len(got) != tt.count {
			t.Errorf("%s: expected %d transactions, got %d", tt.name, tt.count, len(got))
		}
	}
}
