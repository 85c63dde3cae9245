package imagefit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	// Decoders for the formats questions may reference.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"golang.org/x/sync/errgroup"

	"pollkit/internal/logging"
)

// maxImageBytes bounds one downloaded image.
const maxImageBytes = 20 << 20

// Resource is one fetched and decoded question image.
type Resource struct {
	Data    []byte
	Natural Size
	// Extension is the media file extension without dot, derived from the
	// decoded format rather than the URL.
	Extension string
}

// Failure records one reference that could not be fetched or decoded. The
// batch continues without the image.
type Failure struct {
	Key int
	URL string
	Err error
}

// Report aggregates per-item outcomes of a fetch batch.
type Report struct {
	Fetched  int
	Failures []Failure
}

// Fetcher downloads question images with bounded per-request timeouts.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher constructs a fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{client: client, timeout: timeout, logger: logger.With(logging.String(logging.FieldComponent, "imagefit"))}
}

// FetchAll downloads and decodes every referenced image concurrently. Results
// are keyed by the caller's key (slide position), so completion order does
// not matter. A failed item is reported, not fatal.
func (f *Fetcher) FetchAll(ctx context.Context, refs map[int]string) (map[int]Resource, Report) {
	results := make(map[int]Resource, len(refs))
	report := Report{}
	if len(refs) == 0 {
		return results, report
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for key, url := range refs {
		key, url := key, url
		group.Go(func() error {
			resource, err := f.fetchOne(groupCtx, url)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.Warn("question image skipped",
					logging.Int("slide_position", key),
					logging.String("url", url),
					logging.Error(err))
				report.Failures = append(report.Failures, Failure{Key: key, URL: url, Err: err})
				return nil
			}
			results[key] = resource
			report.Fetched++
			return nil
		})
	}
	_ = group.Wait()
	return results, report
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (Resource, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Resource{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Resource{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Resource{}, fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Resource{}, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxImageBytes {
		return Resource{}, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return Decode(data, url)
}

// Decode reads natural dimensions and the media extension from raw bytes.
func Decode(data []byte, origin string) (Resource, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Resource{}, fmt.Errorf("decode image: %w", err)
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(origin), ".")
	}
	return Resource{
		Data:      data,
		Natural:   Size{Width: cfg.Width, Height: cfg.Height},
		Extension: ext,
	}, nil
}
