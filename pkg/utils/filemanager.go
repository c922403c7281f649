// =============================================================================
// Ledger Consolidation - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a batch submission:
//   - Directory management
//   - Report file naming
//   - Archival of committed batch files
//
// ARCHIVAL STRATEGY:
//   - A batch file is moved to the archive directory only when every row of
//     it was committed
//   - A batch with failures stays where it is so it can be fixed and resent
//   - Archived files are placed in date-based subdirectories when enabled
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the files written and moved by the submit command.
type FileManager struct {
	// ReportDir is the directory commit reports are written to.
	// Empty disables reports.
	ReportDir string

	// ArchiveDir is the directory committed batch files are moved to.
	// Empty disables archival.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/batch.xlsx
	UseTimestampSubdirs bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(reportDir, archiveDir string) *FileManager {
	return &FileManager{
		ReportDir:  reportDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the configured directories if they don't exist.
//
// RETURNS:
//   - An error if a directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.ReportDir, fm.ArchiveDir} {
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
// REPORT NAMING
// =============================================================================

// ReportPath returns where the commit report of batchPath is written, or ""
// when reports are disabled.
func (fm *FileManager) ReportPath(format, batchPath string) string {
	if fm.ReportDir == "" {
		return ""
	}
	name := GenerateReportFileName(format, map[string]string{
		"batch": strings.TrimSuffix(filepath.Base(batchPath), filepath.Ext(batchPath)),
	}, fm.clock())
	return filepath.Join(fm.ReportDir, name)
}

// GenerateReportFileName generates a report file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Date (YYYYMMDD)
//               {batch}     - Batch file name (without extension)
//   - params: A map of placeholder values.
//   - now: The time used for {timestamp} and {date}.
//
// RETURNS:
//   - The generated file name, always ending in .xlsx.
//
// EXAMPLE:
//   format: "{batch}_{timestamp}.xlsx"
//   params: {"batch": "march_links"}
//   output: "march_links_20240115_143022.xlsx"
func GenerateReportFileName(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}
	return result
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveBatchFile moves a committed batch file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the batch file.
//
// RETURNS:
//   - The path to the archived file, or filePath when archival is disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveBatchFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	archivePath := fm.archivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		archivePath = strings.TrimSuffix(archivePath, ext) + "_" + fm.clock().Format("150405") + ext
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; copy and delete instead.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

func (fm *FileManager) archivePath(filePath string) string {
	fileName := filepath.Base(filePath)
	if !fm.UseTimestampSubdirs {
		return filepath.Join(fm.ArchiveDir, fileName)
	}
	now := fm.clock()
	return filepath.Join(
		fm.ArchiveDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
		fileName,
	)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
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
