package snapshot

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jobdeck/jobdeck/internal/careerdb/objstore"
)

func newTestSyncer(t *testing.T, store objstore.Client) *Syncer {
	t.Helper()

	localPath := filepath.Join(t.TempDir(), ".jobdeck", "career_data.db")
	return New(store, "career_data.db", localPath, log.New(io.Discard, "", 0))
}

func TestPullBootstrapsEmptyFile(t *testing.T) {
	ctx := context.Background()
	syncer := newTestSyncer(t, objstore.NewMemory())

	downloaded, err := syncer.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull with no remote snapshot failed: %v", err)
	}
	if downloaded {
		t.Error("Pull reported a download when the remote was empty")
	}

	info, err := os.Stat(syncer.LocalPath())
	if err != nil {
		t.Fatalf("local file was not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty bootstrap file, got %d bytes", info.Size())
	}
}

func TestPullDownloadsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	if err := store.Put(ctx, "career_data.db", []byte("snapshot-v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	syncer := newTestSyncer(t, store)

	downloaded, err := syncer.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if !downloaded {
		t.Error("Pull did not report a download")
	}

	data, err := os.ReadFile(syncer.LocalPath())
	if err != nil {
		t.Fatalf("failed to read local file: %v", err)
	}
	if string(data) != "snapshot-v1" {
		t.Errorf("expected %q, got %q", "snapshot-v1", data)
	}
}

func TestPullOverwritesLocalFile(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	if err := store.Put(ctx, "career_data.db", []byte("remote")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	syncer := newTestSyncer(t, store)
	if err := os.MkdirAll(filepath.Dir(syncer.LocalPath()), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(syncer.LocalPath(), []byte("stale local content"), 0o644); err != nil {
		t.Fatalf("failed to seed local file: %v", err)
	}

	if _, err := syncer.Pull(ctx); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	data, err := os.ReadFile(syncer.LocalPath())
	if err != nil {
		t.Fatalf("failed to read local file: %v", err)
	}
	if string(data) != "remote" {
		t.Errorf("local file not overwritten: got %q", data)
	}
}

func TestPullIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	if err := store.Put(ctx, "career_data.db", []byte("stable")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	syncer := newTestSyncer(t, store)

	if _, err := syncer.Pull(ctx); err != nil {
		t.Fatalf("first Pull failed: %v", err)
	}
	first, err := os.ReadFile(syncer.LocalPath())
	if err != nil {
		t.Fatalf("failed to read local file: %v", err)
	}

	if _, err := syncer.Pull(ctx); err != nil {
		t.Fatalf("second Pull failed: %v", err)
	}
	second, err := os.ReadFile(syncer.LocalPath())
	if err != nil {
		t.Fatalf("failed to read local file: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("two pulls with no intervening push yielded different content")
	}
}

func TestPullRemovesStaleWALSidecars(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	if err := store.Put(ctx, "career_data.db", []byte("remote")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	syncer := newTestSyncer(t, store)
	if err := os.MkdirAll(filepath.Dir(syncer.LocalPath()), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	// Leftovers of a session that died before checkpointing.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.WriteFile(syncer.LocalPath()+suffix, []byte("stale"), 0o644); err != nil {
			t.Fatalf("failed to seed %s file: %v", suffix, err)
		}
	}

	if _, err := syncer.Pull(ctx); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(syncer.LocalPath() + suffix); !os.IsNotExist(err) {
			t.Errorf("stale %s file survived the pull", suffix)
		}
	}
}

func TestPullBootstrapRemovesStaleWALSidecars(t *testing.T) {
	ctx := context.Background()
	syncer := newTestSyncer(t, objstore.NewMemory())
	if err := os.MkdirAll(filepath.Dir(syncer.LocalPath()), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(syncer.LocalPath()+"-wal", []byte("stale"), 0o644); err != nil {
		t.Fatalf("failed to seed -wal file: %v", err)
	}

	if _, err := syncer.Pull(ctx); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	if _, err := os.Stat(syncer.LocalPath() + "-wal"); !os.IsNotExist(err) {
		t.Error("stale -wal file survived the bootstrap pull")
	}
}

func TestPushRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()

	writer := newTestSyncer(t, store)
	if _, err := writer.Pull(ctx); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	content := []byte("committed database state")
	if err := os.WriteFile(writer.LocalPath(), content, 0o644); err != nil {
		t.Fatalf("failed to write local file: %v", err)
	}
	if err := writer.Push(ctx); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	// A fresh syncer (new process, new working dir) pulls byte-identical
	// content.
	reader := newTestSyncer(t, store)
	downloaded, err := reader.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if !downloaded {
		t.Fatal("expected pull to download the pushed snapshot")
	}

	data, err := os.ReadFile(reader.LocalPath())
	if err != nil {
		t.Fatalf("failed to read local file: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("round trip mismatch: pushed %q, pulled %q", content, data)
	}
}

func TestPushWithoutLocalFileFails(t *testing.T) {
	ctx := context.Background()
	syncer := newTestSyncer(t, objstore.NewMemory())

	if err := syncer.Push(ctx); err == nil {
		t.Fatal("expected Push without a local file to fail")
	}
}

func TestSyncAndPush(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	if err := store.Put(ctx, "career_data.db", []byte("remote-v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	syncer := newTestSyncer(t, store)
	if err := syncer.SyncAndPush(ctx); err != nil {
		t.Fatalf("SyncAndPush failed: %v", err)
	}

	// After the round trip the remote content is unchanged.
	data, err := store.Get(ctx, "career_data.db")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "remote-v1" {
		t.Errorf("expected remote unchanged, got %q", data)
	}
}
