package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/models"
)

func sampleCollection() models.Collection {
	return models.Collection{
		"1": {ID: 1, Name: "Sarah", Avatar: "/assets/avatars/sarah.jpg", Messages: []models.Message{
			{ID: 11, Content: "hi", Time: "14:30", Type: models.MessageTypeUser},
		}},
		"10000": {ID: 10000, Name: "AI Assistant", Avatar: "/assets/avatars/robot.jpg", Messages: []models.Message{}},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, KeyHumanChats, sampleCollection()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, KeyHumanChats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, sampleCollection()) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, sampleCollection())
	}
}

func TestMemoryStoreAbsent(t *testing.T) {
	got, err := NewMemoryStore().Load(context.Background(), KeyAIChats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent collection, got %+v", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := s.Save(ctx, KeyAIChats, sampleCollection()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, KeyAIChats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, sampleCollection()) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, sampleCollection())
	}
}

func TestFileStoreAbsent(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	got, err := s.Load(context.Background(), KeyHumanChats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent collection, got %+v", got)
	}
}

func TestFileStoreMalformedTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	path := filepath.Join(dir, KeyHumanChats+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	got, err := s.Load(context.Background(), KeyHumanChats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("malformed blob should read as absent, got %+v", got)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s1.Save(ctx, KeyHumanChats, sampleCollection()); err != nil {
		t.Fatalf("save: %v", err)
	}

	s2, err := NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	got, err := s2.Load(ctx, KeyHumanChats)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if !reflect.DeepEqual(got, sampleCollection()) {
		t.Fatalf("state lost across reopen")
	}
}
