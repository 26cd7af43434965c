// =============================================================================
// Receivables Reconciler - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the reconciler:
//   - Source discovery (newest file matching a dataset pattern)
//   - Input archival after a successful run
//   - Output file naming
//   - Error log generation for failed runs
//
// ARCHIVAL STRATEGY:
//   - The three source files are moved to input_archive after a successful
//     run, and only when archival is requested
//   - Failed runs leave every source in place
//   - Error logs are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoInputFile is returned when no file matches a source pattern.
var ErrNoInputFile = errors.New("no input file matches pattern")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the reconciler.
type FileManager struct {
	// InputDir is the directory where the source exports are dropped.
	InputDir string

	// OutputDir is the directory where ledgers and logs are written.
	OutputDir string

	// InputArchiveDir is the directory for archived source files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/cartera.xlsx
	UseTimestampSubdirs bool

	// now is the clock used for archive paths and file names.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
		now:             time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFile finds the source file for a dataset.
//
// PARAMETERS:
//   - pattern: A glob pattern relative to the input directory
//     (e.g., "cartera*"). Matching is case-sensitive, as in filepath.Glob.
//
// RETURNS:
//   - The most recently modified matching file. Ties resolve to the
//     lexically last name, so repeated runs pick the same file.
//   - ErrNoInputFile (wrapped) when nothing matches.
func (fm *FileManager) DiscoverInputFile(pattern string) (string, error) {
	files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return "", fmt.Errorf("failed to scan input directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		if strings.HasPrefix(filepath.Base(file), "~$") {
			// spreadsheet lock file
			continue
		}
		candidates = append(candidates, candidate{file, info.ModTime()})
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoInputFile, filepath.Join(fm.InputDir, pattern))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].modTime.After(candidates[j].modTime)
		}
		return candidates[i].path > candidates[j].path
	})

	return candidates[0].path, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     any key of params, e.g. {cutoff}
//   - ext: The extension to enforce, with the dot (".xlsx").
//   - params: Extra placeholder values.
//
// EXAMPLE:
//
//	format: "cartera_{cutoff}_{uuid}"
//	params: {"cutoff": "20240315"}
//	output: "cartera_20240315_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xlsx"
func (fm *FileManager) GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := fm.clock()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	Dataset      string
	FileName     string
	ErrorType    string
	ErrorMessage string
}

// WriteErrorLog writes error entries to a log file in the output directory.
//
// RETURNS:
//   - The path to the error log file, "" when there is nothing to log.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.clock()
	logPath := filepath.Join(fm.OutputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Receivables Reconciler - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.Dataset != "" {
			fmt.Fprintf(writer, "  Dataset:        %s\n", entry.Dataset)
		}
		if entry.FileName != "" {
			fmt.Fprintf(writer, "  File:           %s\n", entry.FileName)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
