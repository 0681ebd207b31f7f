package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

// ExportProgress reports bulk export progress after each completed file.
type ExportProgress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ExportService packages a selected image set into a single zip archive.
// The policy is all-or-nothing: one failed fetch aborts the whole export,
// and cancellation never produces a partial archive.
type ExportService struct {
	client    *http.Client
	batchSize int
}

func NewExportService(cfg *config.Config) *ExportService {
	batchSize := cfg.ExportBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportService{
		client:    &http.Client{Timeout: 2 * time.Minute},
		batchSize: batchSize,
	}
}

type archiveEntry struct {
	name string
	data []byte
}

// ExportZip fetches every image and writes one zip archive to w. Images are
// processed in fixed-size batches to bound memory and connection use;
// fetches inside a batch run concurrently. Entry names carry a zero-padded
// position prefix so archive order matches selection order no matter how
// fetches complete. Cancellation is checked before every fetch and before
// assembly and yields ErrExportCancelled with nothing written to w.
func (s *ExportService) ExportZip(ctx context.Context, images []models.Image, w io.Writer, onProgress func(ExportProgress)) error {
	total := len(images)
	entries := make([]archiveEntry, total)

	var mu sync.Mutex
	done := 0

	for start := 0; start < total; start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return ErrExportCancelled
		}

		end := start + s.batchSize
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				data, contentType, err := s.fetch(gctx, images[i].URL)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", images[i].ID, err)
				}
				entries[i] = archiveEntry{
					name: entryName(i+1, &images[i], contentType),
					data: data,
				}

				// Progress fires per file and stays monotonic under
				// concurrent completion
				mu.Lock()
				done++
				progress := ExportProgress{
					Current:    done,
					Total:      total,
					Percentage: done * 100 / total,
				}
				if onProgress != nil {
					onProgress(progress)
				}
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ErrExportCancelled
			}
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return ErrExportCancelled
	}

	zw := zip.NewWriter(w)
	for _, entry := range entries {
		f, err := zw.Create(entry.name)
		if err != nil {
			return err
		}
		if _, err := f.Write(entry.data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// FetchImage downloads a single image blob, returning its bytes and the
// extension derived from the response content type.
func (s *ExportService) FetchImage(ctx context.Context, img *models.Image) ([]byte, string, error) {
	data, contentType, err := s.fetch(ctx, img.URL)
	if err != nil {
		return nil, "", err
	}
	return data, extensionFor(contentType), nil
}

func (s *ExportService) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// entryName builds "{3-digit position}_{title-or-id}.{ext}". The numeric
// prefix keeps archive entries collision-free and human-sortable.
func entryName(position int, img *models.Image, contentType string) string {
	name := img.Title
	if name == "" {
		name = img.ID.String()
	}
	return fmt.Sprintf("%03d_%s.%s", position, name, extensionFor(contentType))
}

func extensionFor(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if idx := strings.Index(mediaType, "/"); idx >= 0 && idx < len(mediaType)-1 {
			return mediaType[idx+1:]
		}
	}
	return "jpg"
}
