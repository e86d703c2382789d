package data

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	pkgminio "github.com/lk2023060901/rrdump/internal/pkg/minio"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucketStore accepts bucket creation and object uploads
type fakeBucketStore struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string
	status  int
}

func (f *fakeBucketStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, object, _ := strings.Cut(path, "/")
	switch {
	case r.Method == http.MethodHead && object == "":
		if f.buckets[bucket] {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && object == "":
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[path] = string(data)
		w.Header().Set("ETag", `"0123456789abcdef"`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestArchive(t *testing.T, store *fakeBucketStore) *pkgminio.Client {
	t.Helper()

	server := httptest.NewServer(store)
	t.Cleanup(server.Close)

	client, err := pkgminio.NewClient(&pkgminio.Config{
		Endpoint:        strings.TrimPrefix(server.URL, "http://"),
		AccessKeyID:     "access",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		BucketLookup:    pkgminio.BucketLookupPath,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestArchiverUploadsCommittedFile(t *testing.T) {
	store := &fakeBucketStore{buckets: map[string]bool{}, objects: map[string]string{}}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dumps/870970.lin", []byte("records"), 0o644))

	archiver := NewMinIOArchiver(newTestArchive(t, store), fs, "rrdump-archive", "daily/", nil)
	location, err := archiver.Archive(context.Background(), "/dumps/870970.lin")
	require.NoError(t, err)

	assert.Equal(t, "rrdump-archive/daily/870970.lin", location)
	assert.True(t, store.buckets["rrdump-archive"])
	assert.Contains(t, store.objects["rrdump-archive/daily/870970.lin"], "records")
}

func TestArchiverMissingFile(t *testing.T) {
	store := &fakeBucketStore{buckets: map[string]bool{"rrdump-archive": true}, objects: map[string]string{}}

	archiver := NewMinIOArchiver(newTestArchive(t, store), afero.NewMemMapFs(), "rrdump-archive", "", nil)
	_, err := archiver.Archive(context.Background(), "/dumps/missing.lin")
	assert.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestArchiverStoreFailure(t *testing.T) {
	store := &fakeBucketStore{status: http.StatusForbidden}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dumps/870970.lin", []byte("records"), 0o644))

	archiver := NewMinIOArchiver(newTestArchive(t, store), fs, "rrdump-archive", "", nil)
	_, err := archiver.Archive(context.Background(), "/dumps/870970.lin")
	assert.Error(t, err)
}
