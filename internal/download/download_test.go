package download

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIntegrity(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range Catalog {
		assert.NotEmpty(t, s.Key)
		assert.NotEmpty(t, s.URL)
		assert.False(t, seen[s.Key], "duplicate key %s", s.Key)
		seen[s.Key] = true
		if !s.ManualOnly {
			assert.NotEmpty(t, s.Filename, "%s needs a filename", s.Key)
		}
	}

	_, ok := Lookup("fdic_failed_banks")
	assert.True(t, ok)
	_, ok = Lookup("nope")
	assert.False(t, ok)

	nic := ByGroup(GroupNIC)
	assert.Len(t, nic, 5)
}

func testSource(url string) Source {
	return Source{
		Key:      "test_source",
		Name:     "Test Source",
		URL:      url,
		Format:   "csv",
		Group:    GroupFDIC,
		Filename: "test.csv",
	}
}

func newTestDownloader(t *testing.T, dir string) *Downloader {
	t.Helper()
	return New(dir,
		WithInterval(time.Millisecond),
		WithClient(&http.Client{Timeout: 5 * time.Second}))
}

func TestFetchWritesFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("charter_id,year\n1,1900\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := newTestDownloader(t, dir)
	src := testSource(srv.URL)

	res := d.Fetch(context.Background(), src)
	require.NoError(t, res.Err)
	assert.False(t, res.Skipped)
	assert.Equal(t, filepath.Join(dir, "fdic", "test.csv"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "charter_id")

	// Second fetch skips without touching the server.
	res = d.Fetch(context.Background(), src)
	require.NoError(t, res.Err)
	assert.True(t, res.Skipped)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := newTestDownloader(t, t.TempDir())
	res := d.Fetch(context.Background(), testSource(srv.URL))
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "404")

	// No partial file may satisfy a later skip check.
	_, err := os.Stat(d.Path(res.Source))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchManualOnly(t *testing.T) {
	d := newTestDownloader(t, t.TempDir())
	src := Source{Key: "manual", URL: "https://example.org/portal", ManualOnly: true}

	res := d.Fetch(context.Background(), src)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "manual download")
}

func TestFetchExtractsZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("ATTRIBUTES.csv")
	require.NoError(t, err)
	fw.Write([]byte("id,name\n1,First National\n"))
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := newTestDownloader(t, dir)
	src := Source{
		Key:      "nic_test",
		URL:      srv.URL,
		Format:   "zip",
		Group:    GroupNIC,
		Filename: "archive.zip",
	}

	res := d.Fetch(context.Background(), src)
	require.NoError(t, res.Err)

	extracted := filepath.Join(dir, "nic", "archive", "ATTRIBUTES.csv")
	data, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Contains(t, string(data), "First National")
}

func TestFetchAllContinuesPastFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.Error(w, "no", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := newTestDownloader(t, t.TempDir())
	sources := []Source{
		{Key: "bad", URL: srv.URL + "/bad", Group: GroupFDIC, Filename: "bad.csv"},
		{Key: "good", URL: srv.URL + "/good", Group: GroupFDIC, Filename: "good.csv"},
	}

	results := d.FetchAll(context.Background(), sources)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}
