package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"empchat/pkg/logger"

	"github.com/djherbis/times"
)

var (
	// ErrStagingWrite reports an I/O failure while saving an uploaded file.
	// The staging directory is left in whatever partial state existed.
	ErrStagingWrite = errors.New("staging write failed")

	// ErrArchiveMove reports a failure moving a processed PDF from staging
	// to the archive. Files not yet moved stay in staging; the vector index
	// has already been updated at this point.
	ErrArchiveMove = errors.New("archive move failed")
)

// MetadataReader reads the raw /CreationDate value from a PDF file.
type MetadataReader interface {
	CreationDate(path string) (string, error)
}

// UploadedFile is a single file received from the upload surface.
type UploadedFile struct {
	Name string
	Data []byte
}

// Ingestor manages the staging and archive directories of the document
// corpus: it stages uploads, assigns canonical sortable names and moves
// processed files into the archive. Concurrent use is not supported; the
// staging directory is destructively reset on every batch.
type Ingestor struct {
	stagingDir string
	archiveDir string
	meta       MetadataReader
	log        logger.Logger
}

// NewIngestor creates a new Ingestor over the given directories.
func NewIngestor(stagingDir, archiveDir string, meta MetadataReader, log logger.Logger) *Ingestor {
	return &Ingestor{
		stagingDir: stagingDir,
		archiveDir: archiveDir,
		meta:       meta,
		log:        log,
	}
}

// StagingDir returns the staging directory path.
func (in *Ingestor) StagingDir() string { return in.stagingDir }

// ArchiveDir returns the archive directory path.
func (in *Ingestor) ArchiveDir() string { return in.archiveDir }

// StageUploads clears and recreates the staging directory, then writes each
// uploaded file into it. Any prior unprocessed uploads are lost. If a write
// fails the whole staging operation is aborted; partial writes are not
// rolled back.
func (in *Ingestor) StageUploads(files []UploadedFile) error {
	if err := os.RemoveAll(in.stagingDir); err != nil {
		return fmt.Errorf("%w: failed to reset staging directory: %v", ErrStagingWrite, err)
	}
	if err := os.MkdirAll(in.stagingDir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create staging directory: %v", ErrStagingWrite, err)
	}

	for _, f := range files {
		path := filepath.Join(in.stagingDir, filepath.Base(f.Name))
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			in.log.Error(fmt.Sprintf("Failed to save uploaded file %s: %v", f.Name, err))
			return fmt.Errorf("%w: %s: %v", ErrStagingWrite, f.Name, err)
		}
	}

	in.log.Info(fmt.Sprintf("Staged %d uploaded files in %s", len(files), in.stagingDir))
	return nil
}

// AssignCanonicalNames renames every staged PDF to "{seq}-{date}.pdf". The
// sequence continues after the count of PDFs already archived, so indices are
// unique across batches as long as nothing else writes to the archive. Files
// are processed in lexical name order. It returns the canonical names in
// processing order.
func (in *Ingestor) AssignCanonicalNames() ([]string, error) {
	seq, err := countPDFs(in.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("failed to count archived PDFs: %w", err)
	}

	staged, err := in.StagedPDFs()
	if err != nil {
		return nil, err
	}

	var renamed []string
	for _, path := range staged {
		seq++
		date := in.canonicalDate(path)
		newName := fmt.Sprintf("%d-%s.pdf", seq, date)

		newPath := filepath.Join(in.stagingDir, newName)
		if err := os.Rename(path, newPath); err != nil {
			return nil, fmt.Errorf("failed to rename %s to %s: %w", filepath.Base(path), newName, err)
		}
		in.log.Info(fmt.Sprintf("Renamed %s to %s", filepath.Base(path), newName))
		renamed = append(renamed, newName)
	}

	return renamed, nil
}

// StagedPDFs returns the full paths of all PDFs currently in the staging
// directory, in lexical name order.
func (in *Ingestor) StagedPDFs() ([]string, error) {
	entries, err := os.ReadDir(in.stagingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(in.stagingDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Archive moves every PDF from the staging directory into the archive.
// Non-PDF files are ignored. A move failure aborts the operation; files
// already moved stay in the archive.
func (in *Ingestor) Archive() error {
	if err := os.MkdirAll(in.archiveDir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create archive directory: %v", ErrArchiveMove, err)
	}

	staged, err := in.StagedPDFs()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveMove, err)
	}

	for _, path := range staged {
		name := filepath.Base(path)
		if err := os.Rename(path, filepath.Join(in.archiveDir, name)); err != nil {
			in.log.Error(fmt.Sprintf("Failed to move %s to archive: %v", name, err))
			return fmt.Errorf("%w: %s: %v", ErrArchiveMove, name, err)
		}
		in.log.Info(fmt.Sprintf("Moved %s to archive", name))
	}

	return nil
}

// canonicalDate resolves the YYYYMMDD date used in a staged PDF's canonical
// name. It prefers the digits of the PDF's /CreationDate metadata; when that
// is missing or has fewer than 8 digits it falls back to the file's birth or
// modification time, and as a last resort the empty string.
func (in *Ingestor) canonicalDate(path string) string {
	raw, err := in.meta.CreationDate(path)
	if err != nil {
		in.log.Warn(fmt.Sprintf("Failed to read creation date of %s: %v", filepath.Base(path), err))
	}
	if digits := digitPrefix(raw, 8); len(digits) == 8 {
		return digits
	}

	ts, err := times.Stat(path)
	if err != nil {
		in.log.Warn(fmt.Sprintf("Failed to stat %s for date fallback: %v", filepath.Base(path), err))
		return ""
	}
	if ts.HasBirthTime() {
		return ts.BirthTime().Format("20060102")
	}
	return ts.ModTime().Format("20060102")
}

// digitPrefix returns the first n digit characters of s.
func digitPrefix(s string, n int) string {
	var digits []rune
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
			if len(digits) == n {
				break
			}
		}
	}
	return string(digits)
}

// countPDFs counts the PDF files directly inside dir. A missing directory
// counts as zero.
func countPDFs(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && isPDF(e.Name()) {
			count++
		}
	}
	return count, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
