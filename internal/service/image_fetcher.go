package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"studycollab_backend/internal/util"

	"github.com/gabriel-vasile/mimetype"
)

// ImageFetcher turns a question image reference into a self-contained data
// URI. Remote images come over HTTP(S); images kept in the configured object
// store are addressed as "<scheme>://<key>".
type ImageFetcher struct {
	client   *http.Client
	storage  *StorageService
	tunables *Tunables
}

func NewImageFetcher(client *http.Client, storage *StorageService, tunables *Tunables) *ImageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &ImageFetcher{client: client, storage: storage, tunables: tunables}
}

// Embed returns the data URI for rawURL. Every failure wraps ErrImageEmbed.
// An empty reference embeds to an empty string.
func (f *ImageFetcher) Embed(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}
	if strings.HasPrefix(rawURL, "data:") {
		return rawURL, nil
	}

	cfg := f.tunables.Get()
	if cfg.ImageFetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ImageFetchTimeout)
		defer cancel()
	}

	var (
		body io.ReadCloser
		err  error
	)
	switch {
	case f.storage.Handles(rawURL):
		body, err = f.storage.Open(ctx, rawURL)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		body, err = f.get(ctx, rawURL)
	default:
		err = fmt.Errorf("unsupported image url %q", rawURL)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrImageEmbed, err)
	}
	defer body.Close()

	data, err := readLimited(body, cfg.MaxImageBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", util.ErrImageEmbed, rawURL, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s: empty body", util.ErrImageEmbed, rawURL)
	}

	return EncodeDataURI(data), nil
}

func (f *ImageFetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("image larger than %d bytes", max)
	}
	return data, nil
}

// EncodeDataURI sniffs the media type of data and encodes it as a base64
// data URI.
func EncodeDataURI(data []byte) string {
	mime := mimetype.Detect(data).String()
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
