package dataset

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// DefaultMNISTBaseURL serves the four classic gzipped IDX files. The
// original yann.lecun.com host rate-limits aggressively, so the S3 mirror
// is the default.
const DefaultMNISTBaseURL = "https://ossci-datasets.s3.amazonaws.com/mnist/"

const (
	mnistRows = 28
	mnistCols = 28

	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

type mnistFile struct {
	name   string
	sha256 string
}

var mnistTrainFiles = [2]mnistFile{
	{"train-images-idx3-ubyte.gz", "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"},
	{"train-labels-idx1-ubyte.gz", "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"},
}

var mnistTestFiles = [2]mnistFile{
	{"t10k-images-idx3-ubyte.gz", "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"},
	{"t10k-labels-idx1-ubyte.gz", "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"},
}

var mnistClasses = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// LoadMNIST loads the MNIST split from dir, downloading and caching the
// gzipped IDX files on first use. baseURL selects the mirror ("" uses
// DefaultMNISTBaseURL). Pixels are scaled to [0, 1]. limit truncates the
// dataset (0 = all samples).
func LoadMNIST(ctx context.Context, dir, baseURL string, train bool, limit int) (*Dataset, error) {
	files := mnistTestFiles
	if train {
		files = mnistTrainFiles
	}
	return loadMNIST(ctx, dir, baseURL, files[:], limit)
}

func loadMNIST(ctx context.Context, dir, baseURL string, files []mnistFile, limit int) (*Dataset, error) {
	if err := fetchMNIST(ctx, dir, baseURL, files); err != nil {
		return nil, err
	}

	images, err := readIDXImages(filepath.Join(dir, files[0].name))
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	labels, err := readIDXLabels(filepath.Join(dir, files[1].name))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(images), len(labels))
	}

	n := len(images)
	if limit > 0 && limit < n {
		n = limit
	}

	d := &Dataset{
		Name:     "mnist",
		Features: make([][]float32, n),
		Labels:   make([]int32, n),
		Shape:    []int{1, mnistRows, mnistCols},
		Classes:  mnistClasses,
	}
	for i := 0; i < n; i++ {
		row := make([]float32, len(images[i]))
		for j, px := range images[i] {
			row[j] = float32(px) / 255.0
		}
		d.Features[i] = row
		d.Labels[i] = int32(labels[i])
	}

	return d, d.validate()
}

// fetchMNIST downloads any missing files into dir and verifies digests.
func fetchMNIST(ctx context.Context, dir, baseURL string, files []mnistFile) error {
	if baseURL == "" {
		baseURL = DefaultMNISTBaseURL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			path := filepath.Join(dir, f.name)
			if ok, err := digestMatches(path, f.sha256); err != nil {
				return err
			} else if ok {
				return nil
			}
			if err := download(ctx, baseURL+f.name, path); err != nil {
				return fmt.Errorf("download %s: %w", f.name, err)
			}
			ok, err := digestMatches(path, f.sha256)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: sha256 mismatch after download", f.name)
			}
			return nil
		})
	}
	return g.Wait()
}

func digestMatches(path, want string) (bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)) == want, nil
}

func download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readIDXImages reads a gzipped MNIST image file in IDX format.
//
//	magic number: 0x00000803 (2051)
//	number of images, rows, cols: 4 bytes each, big endian
//	pixel data: unsigned bytes (0-255)
func readIDXImages(path string) ([][]byte, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != idxImagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, idxImagesMagic)
	}

	var numImages, numRows, numCols uint32
	for _, dst := range []*uint32{&numImages, &numRows, &numCols} {
		if err := binary.Read(r, binary.BigEndian, dst); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}

	imageSize := int(numRows * numCols)
	images := make([][]byte, numImages)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return images, nil
}

// readIDXLabels reads a gzipped MNIST label file in IDX format.
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes, big endian
//	label data: unsigned bytes (0-9)
func readIDXLabels(path string) ([]byte, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != idxLabelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, idxLabelsMagic)
	}

	var numLabels uint32
	if err := binary.Read(r, binary.BigEndian, &numLabels); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	labels := make([]byte, numLabels)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

// openIDX opens an IDX file, transparently gunzipping *.gz.
func openIDX(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if filepath.Ext(path) != ".gz" {
		return f, func() { f.Close() }, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("gunzip %s: %w", path, err)
	}
	return gz, func() { gz.Close(); f.Close() }, nil
}
