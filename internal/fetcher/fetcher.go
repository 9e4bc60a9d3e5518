// Package fetcher downloads the upstream agency files (BLS flat files and
// archives, MSHA mine data, EPA spreadsheets, Census boundary archives) and
// unpacks the container formats they ship in.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path, returning the
	// number of bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
