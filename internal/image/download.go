package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DownloadOptions configures image download behavior
type DownloadOptions struct {
	OutputDir         string // Directory to save images
	OverwriteExisting bool   // Whether to overwrite existing files
	FileNamePattern   string // Pattern for file naming (e.g., "{query}_{source}")
	MaxSizeBytes      int64  // Maximum file size to download (0 = no limit)
}

// DefaultDownloadOptions returns sensible defaults for image downloads
func DefaultDownloadOptions() *DownloadOptions {
	return &DownloadOptions{
		OutputDir:         "./images",
		OverwriteExisting: false,
		FileNamePattern:   "{query}_{source}",
		MaxSizeBytes:      10 * 1024 * 1024, // 10MB
	}
}

// Downloader saves image search results to local files
type Downloader struct {
	searcher ImageSearcher
	options  *DownloadOptions
	logger   *slog.Logger
}

// NewDownloader creates a new image downloader
func NewDownloader(searcher ImageSearcher, options *DownloadOptions, logger *slog.Logger) *Downloader {
	if options == nil {
		options = DefaultDownloadOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		searcher: searcher,
		options:  options,
		logger:   logger,
	}
}

// DownloadImage downloads a single image to the specified path
func (d *Downloader) DownloadImage(ctx context.Context, result *SearchResult, outputPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Check if file already exists
	if !d.options.OverwriteExisting {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s", outputPath)
		}
	}

	// Download the image
	reader, err := d.searcher.Download(ctx, result.URL)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	defer reader.Close()

	// Create output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Copy with size limit if specified
	if d.options.MaxSizeBytes > 0 {
		written, err := io.CopyN(file, reader, d.options.MaxSizeBytes)
		if err != nil && err != io.EOF {
			os.Remove(outputPath) // Clean up on error
			return fmt.Errorf("failed to write file: %w", err)
		}

		// Check if we hit the size limit
		if written == d.options.MaxSizeBytes {
			// Try to read one more byte to see if the file is larger
			if _, err := reader.Read(make([]byte, 1)); err != io.EOF {
				os.Remove(outputPath)
				return fmt.Errorf("image exceeds maximum size of %d bytes", d.options.MaxSizeBytes)
			}
		}
	} else {
		if _, err := io.Copy(file, reader); err != nil {
			os.Remove(outputPath)
			return fmt.Errorf("failed to write file: %w", err)
		}
	}

	return nil
}

// DownloadBestMatch downloads the first downloadable result for the given
// search options and returns the result plus the local path.
func (d *Downloader) DownloadBestMatch(ctx context.Context, opts *SearchOptions) (*SearchResult, string, error) {
	searchOpts := *opts // Copy to avoid modifying original
	searchOpts.PerPage = 5

	results, err := d.searcher.Search(ctx, &searchOpts)
	if err != nil {
		return nil, "", fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return nil, "", fmt.Errorf("no images found for query: %s", opts.Query)
	}

	// Try to download the first available image
	for i, result := range results {
		filename := d.generateFileName(opts.Query, &result, i)
		outputPath := filepath.Join(d.options.OutputDir, filename)

		if err := d.DownloadImage(ctx, &result, outputPath); err == nil {
			return &result, outputPath, nil
		} else {
			d.logger.Warn("image download failed, trying next result",
				"provider", d.searcher.Name(), "index", i, "error", err)
		}
	}

	return nil, "", fmt.Errorf("failed to download any images for query: %s", opts.Query)
}

// generateFileName creates a filename based on the pattern
func (d *Downloader) generateFileName(query string, result *SearchResult, index int) string {
	filename := d.options.FileNamePattern

	filename = strings.ReplaceAll(filename, "{query}", sanitizeFileName(query))
	filename = strings.ReplaceAll(filename, "{source}", result.Source)
	filename = strings.ReplaceAll(filename, "{id}", result.ID)
	filename = strings.ReplaceAll(filename, "{index}", fmt.Sprintf("%d", index))

	// Determine extension from URL
	ext := filepath.Ext(result.URL)
	if ext == "" || len(ext) > 5 { // Probably not a real extension
		ext = ".jpg"
	}
	if idx := strings.IndexAny(ext, "?&"); idx > 0 {
		ext = ext[:idx]
	}

	if filepath.Ext(filename) == "" {
		filename += ext
	}

	return filename
}

// sanitizeFileName removes or replaces characters that are problematic in filenames
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		".", "_",
	)

	sanitized := replacer.Replace(name)

	// Ensure the filename is not too long
	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}

	return sanitized
}
