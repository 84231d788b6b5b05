package collect_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/eslider/maildirpack/internal/collect"
)

func writeMessage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

func newMaildir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "new"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	return root
}

func TestList_PlainDateHeader(t *testing.T) {
	root := newMaildir(t)
	writeMessage(t, filepath.Join(root, "new"), "1", "Date: Fri, 21 Nov 1997 09:55:06 -0600\nSubject: hi\n\nbody\n")

	got, err := collect.List(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].Instant == nil {
		t.Fatalf("Instant = nil, want parsed")
	}
}

func TestList_FoldedDateHeader(t *testing.T) {
	root := newMaildir(t)
	// The date value is split across a folded continuation line; the
	// continuation starts with a space and must be appended verbatim.
	writeMessage(t, filepath.Join(root, "new"), "1",
		"Date: Fri, 21 Nov 1997\n 09:55:06 -0600\nSubject: hi\n\nbody\n")

	got, err := collect.List(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Instant == nil {
		t.Fatalf("got = %+v, want one message with a parsed instant", got)
	}
}

func TestList_MissingDateHeaderIsUnknown(t *testing.T) {
	root := newMaildir(t)
	writeMessage(t, filepath.Join(root, "new"), "1", "Subject: no date here\n\nbody\n")

	got, err := collect.List(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Instant != nil {
		t.Fatalf("got = %+v, want one message with a nil instant", got)
	}
}

func TestList_UnparseableDateIsUnknown(t *testing.T) {
	root := newMaildir(t)
	writeMessage(t, filepath.Join(root, "new"), "1", "Date: not a date\n\nbody\n")

	got, err := collect.List(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Instant != nil {
		t.Fatalf("got = %+v, want one message with a nil instant", got)
	}
}

func TestList_TrailingZoneCommentStripped(t *testing.T) {
	root := newMaildir(t)
	writeMessage(t, filepath.Join(root, "new"), "1", "Date: Fri, 21 Nov 1997 09:55:06 -0600 (CST)\n\nbody\n")

	got, err := collect.List(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Instant == nil {
		t.Fatalf("got = %+v, want one message with a parsed instant", got)
	}
}

func TestList_EmptyMaildirReturnsNoMessages(t *testing.T) {
	root := newMaildir(t)

	got, err := collect.List(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}
}

func TestList_MissingNewDirIsFatal(t *testing.T) {
	root := t.TempDir() // no "new" subdirectory created

	if _, err := collect.List(context.Background(), root, 2, nil, nil); err == nil {
		t.Fatal("List: want error for missing new/ directory, got nil")
	}
}

func TestList_ManyMessagesAllCollected(t *testing.T) {
	root := newMaildir(t)
	newDir := filepath.Join(root, "new")
	for i := 0; i < 300; i++ {
		writeMessage(t, newDir, filepath.Base(filepath.Join("m", itoa(i))), "Subject: x\n\nbody\n")
	}

	var ticked atomic.Int64
	got, err := collect.List(context.Background(), root, 4, nil, func(delta int) { ticked.Add(int64(delta)) })
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 300 {
		t.Fatalf("len(got) = %d, want 300", len(got))
	}
	if n := ticked.Load(); n != 300 {
		t.Errorf("ticked = %d, want 300", n)
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
