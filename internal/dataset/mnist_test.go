package dataset

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mnistFixture builds a gzipped image/label file pair for n samples and
// returns the payloads keyed by file name plus the matching digest table.
func mnistFixture(t *testing.T, n int) (map[string][]byte, []mnistFile) {
	t.Helper()

	var images bytes.Buffer
	require.NoError(t, binary.Write(&images, binary.BigEndian, uint32(idxImagesMagic)))
	require.NoError(t, binary.Write(&images, binary.BigEndian, uint32(n)))
	require.NoError(t, binary.Write(&images, binary.BigEndian, uint32(mnistRows)))
	require.NoError(t, binary.Write(&images, binary.BigEndian, uint32(mnistCols)))
	for i := 0; i < n; i++ {
		pixels := make([]byte, mnistRows*mnistCols)
		pixels[0] = byte(i)
		images.Write(pixels)
	}

	var labels bytes.Buffer
	require.NoError(t, binary.Write(&labels, binary.BigEndian, uint32(idxLabelsMagic)))
	require.NoError(t, binary.Write(&labels, binary.BigEndian, uint32(n)))
	for i := 0; i < n; i++ {
		labels.WriteByte(byte(i % 10))
	}

	payloads := map[string][]byte{
		"images-idx3-ubyte.gz": gzipBytes(t, images.Bytes()),
		"labels-idx1-ubyte.gz": gzipBytes(t, labels.Bytes()),
	}
	files := []mnistFile{
		{"images-idx3-ubyte.gz", sha256Hex(payloads["images-idx3-ubyte.gz"])},
		{"labels-idx1-ubyte.gz", sha256Hex(payloads["labels-idx1-ubyte.gz"])},
	}
	return payloads, files
}

func gzipBytes(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func mirrorFor(t *testing.T, payloads map[string][]byte) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path[1:]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestLoadMNISTFromMirror(t *testing.T) {
	payloads, files := mnistFixture(t, 5)
	baseURL := mirrorFor(t, payloads)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"all samples", 0, 5},
		{"limit below count", 2, 2},
		{"limit above count", 100, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := loadMNIST(context.Background(), t.TempDir(), baseURL, files, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ds.Len())
			assert.Equal(t, 10, ds.NumClasses())
			assert.Equal(t, mnistRows*mnistCols, ds.FeatureDim())
			for i := 0; i < ds.Len(); i++ {
				assert.Equal(t, int32(i%10), ds.Labels[i])
			}
		})
	}
}

func TestLoadMNISTUsesCachedFiles(t *testing.T) {
	payloads, files := mnistFixture(t, 3)
	baseURL := mirrorFor(t, payloads)
	dir := t.TempDir()

	_, err := loadMNIST(context.Background(), dir, baseURL, files, 0)
	require.NoError(t, err)

	// A second load must not hit the mirror again.
	ds, err := loadMNIST(context.Background(), dir, "http://127.0.0.1:0/", files, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestFetchMNISTDigestMismatch(t *testing.T) {
	payloads, files := mnistFixture(t, 3)
	// Corrupt one payload after the digest table was computed.
	payloads["labels-idx1-ubyte.gz"] = append(payloads["labels-idx1-ubyte.gz"], 0xff)
	baseURL := mirrorFor(t, payloads)

	err := fetchMNIST(context.Background(), t.TempDir(), baseURL, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sha256 mismatch")
}
