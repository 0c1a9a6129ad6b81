package leak

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientPNG is brighter towards the right, so every dHash bit is set.
func gradientPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 90, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 90; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / 89)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDirectorySource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "found.png"), gradientPNG(t), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "again.png"), gradientPNG(t), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cache"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cache", "x.png"), gradientPNG(t), 0o600))

	got, err := DirectorySource{Dir: dir}.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	sort.Slice(got, func(i, j int) bool { return got[i].URL < got[j].URL })
	for _, c := range got {
		assert.True(t, strings.HasPrefix(c.URL, "file://"), c.URL)
		assert.NoError(t, c.Err)
	}
	assert.True(t, strings.HasSuffix(got[0].URL, "/found.png"))
	assert.Equal(t, "ffffffffffffffff", got[0].Digest)
	assert.True(t, strings.HasSuffix(got[1].URL, "/notes.txt"))
	assert.Empty(t, got[1].Digest)
	assert.True(t, strings.HasSuffix(got[2].URL, "/sub/again.png"))
	assert.Equal(t, "ffffffffffffffff", got[2].Digest)
}

func TestDirectorySource_Missing(t *testing.T) {
	_, err := DirectorySource{Dir: filepath.Join(t.TempDir(), "nope")}.Candidates(context.Background())
	require.Error(t, err)
}

func TestURLSource(t *testing.T) {
	img := gradientPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/leak.png":
			_, _ = w.Write(img)
		case "/page.html":
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := URLSource{
		URLs:   []string{srv.URL + "/leak.png", srv.URL + "/page.html", srv.URL + "/gone.png"},
		Client: srv.Client(),
	}
	got, err := src.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "ffffffffffffffff", got[0].Digest)
	assert.NoError(t, got[0].Err)
	assert.Empty(t, got[1].Digest)
	assert.NoError(t, got[1].Err)
	assert.Error(t, got[2].Err)

	r := Evaluate("ffffffffffffffff", got, 5)
	assert.Equal(t, []Match{{URL: srv.URL + "/leak.png", Distance: 0}}, r.Matches)
	assert.Len(t, r.Skipped, 2)
}

func TestURLSource_SizeCap(t *testing.T) {
	img := gradientPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	got, err := URLSource{URLs: []string{srv.URL}, Client: srv.Client(), MaxBytes: 10}.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Error(t, got[0].Err)
}

func TestURLSource_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := URLSource{URLs: []string{"http://127.0.0.1:1/x"}}.Candidates(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadURLList(t *testing.T) {
	in := "# found by reverse search\nhttps://a.example/1.png\n\n   https://b.example/2.jpg  \n#https://skipped\n"
	got, err := ReadURLList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1.png", "https://b.example/2.jpg"}, got)
}

func TestReadURLFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(p, []byte("https://x.example/a.png\n"), 0o600))

	got, err := ReadURLFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.example/a.png"}, got)

	_, err = ReadURLFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
