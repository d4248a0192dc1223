package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retailpulse/stocksense/internal/ingest"
)

// DownloadOptions controls how dataset files are pulled from Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader wraps Service to fetch a folder's dataset files into a
// local directory, normalizing everything to CSV on the way down.
type Downloader struct {
	service *Service
}

func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolderCSV downloads all CSV and XLSX files from the given
// Drive folder into DownloadDir and returns local CSV paths. XLSX
// files are converted from their first sheet and the original is
// removed.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.service.ListFiles(opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, f.Name)
		if err := d.downloadTo(f, localPath); err != nil {
			return nil, err
		}

		if ext == ".csv" {
			localPaths = append(localPaths, localPath)
			continue
		}

		csvPath, err := ingest.NormalizePath(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s to csv: %w", f.Name, err)
		}
		_ = os.Remove(localPath)
		localPaths = append(localPaths, csvPath)
	}

	return localPaths, nil
}

func (d *Downloader) downloadTo(f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer out.Close()

	if err := d.service.DownloadFile(f.ID, out); err != nil {
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return nil
}

// PickDatasetPaths classifies downloaded CSVs into the three dataset
// roles by file name. Order history and inventory are required; the
// pending-orders file is optional and returned empty when absent.
func PickDatasetPaths(paths []string) (orders, inventory, pending string, err error) {
	for _, p := range paths {
		name := strings.ToLower(filepath.Base(p))
		switch {
		case strings.Contains(name, "pending"):
			pending = p
		case strings.Contains(name, "inventory") || strings.Contains(name, "stock"):
			inventory = p
		case strings.Contains(name, "order") || strings.Contains(name, "sales"):
			orders = p
		}
	}

	if orders == "" {
		return "", "", "", fmt.Errorf("no order history file found among %d downloads", len(paths))
	}
	if inventory == "" {
		return "", "", "", fmt.Errorf("no inventory file found among %d downloads", len(paths))
	}
	return orders, inventory, pending, nil
}
