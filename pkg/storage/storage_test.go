package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

func readAll(t *testing.T, s Store, name string) string {
	t.Helper()
	r, err := s.Open(context.Background(), name)
	if err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	if _, err := s.Open(ctx, "tts_a.mp3"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Open missing = %v, want fs.ErrNotExist", err)
	}

	if err := s.Put(ctx, "tts_a.mp3", []byte("long audio payload"), "audio/mpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "tts_a.mp3", []byte("short"), "audio/mpeg"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if got := readAll(t, s, "tts_a.mp3"); got != "short" {
		t.Fatalf("Open = %q, want %q", got, "short")
	}

	if err := s.Delete(ctx, "tts_a.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "tts_a.mp3"); err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	if _, err := s.Open(ctx, "tts_a.mp3"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Open after Delete = %v, want fs.ErrNotExist", err)
	}

	for _, bad := range []string{"", "..", "../x", "a/b", `a\b`, ".hidden"} {
		if err := s.Put(ctx, bad, nil, ""); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) = %v, want ErrInvalidName", bad, err)
		}
	}
}

func TestLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tts")
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(s.Root()); err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
	testStore(t, s)

	entries, _ := os.ReadDir(s.Root())
	for _, e := range entries {
		t.Errorf("leftover file %s", e.Name())
	}
}

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	if in.ContentType != nil {
		f.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	testStore(t, NewS3(newFakeS3(), "bucket", ""))
}

func TestS3Prefix(t *testing.T) {
	fake := newFakeS3()
	s := NewS3(fake, "bucket", "audio")
	if err := s.Put(context.Background(), "tts_x.mp3", []byte("x"), "audio/mpeg"); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.objects["audio/tts_x.mp3"]; !ok {
		t.Fatalf("objects = %v, want audio/tts_x.mp3", fake.objects)
	}
	if got := fake.types["audio/tts_x.mp3"]; got != "audio/mpeg" {
		t.Fatalf("content type = %q", got)
	}
}
