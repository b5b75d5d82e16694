package audit

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scanflow/internal/logging"
)

// Status classifies the outcome a record describes.
type Status string

const (
	StatusInfo Status = "Info"
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// Actions stamped onto audit records by the pipeline stages.
const (
	ActionBatchIntake    = "Batch Intake"
	ActionDocumentIntake = "Document Intake"
	ActionVerify         = "System Verify"
	ActionCompress       = "System Compress"
	ActionUpload         = "System Upload"
)

var header = []string{"Timestamp", "Scanner", "PC", "Folder", "File", "Status", "Action", "Message"}

// Record is one immutable audit trail entry.
type Record struct {
	Timestamp time.Time
	ScannerID string
	StationID string
	Folder    string
	File      string
	Status    Status
	Action    string
	Message   string
}

// Writer appends records to the structured audit log and mirrors each one to
// the process log. Records are never rewritten.
type Writer struct {
	mu        sync.Mutex
	file      *os.File
	csv       *csv.Writer
	scannerID string
	stationID string
	logger    *slog.Logger
	now       func() time.Time
}

// NewWriter opens (or creates) the audit log at path. A fresh file gets the
// column header; an existing file is appended to. Failure to open is fatal
// to startup, matching the one global fatal error path the pipeline has.
func NewWriter(path, scannerID, stationID string, logger *slog.Logger) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	w := &Writer{
		file:      file,
		csv:       csv.NewWriter(file),
		scannerID: scannerID,
		stationID: stationID,
		logger:    logging.WithComponent(logger, "audit"),
		now:       time.Now,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	if info.Size() == 0 {
		if err := w.csv.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("write audit header: %w", err)
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush audit header: %w", err)
		}
	}
	return w, nil
}

// Append writes one record. Append errors are reported but records already
// written are never touched.
func (w *Writer) Append(folder, file string, status Status, action, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	record := Record{
		Timestamp: w.now().UTC(),
		ScannerID: w.scannerID,
		StationID: w.stationID,
		Folder:    folder,
		File:      file,
		Status:    status,
		Action:    action,
		Message:   message,
	}

	row := []string{
		record.Timestamp.Format(time.RFC3339),
		record.ScannerID,
		record.StationID,
		record.Folder,
		record.File,
		string(record.Status),
		record.Action,
		record.Message,
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush audit record: %w", err)
	}

	w.mirror(record)
	return nil
}

// Info appends an informational record.
func (w *Writer) Info(folder, file, action, message string) error {
	return w.Append(folder, file, StatusInfo, action, message)
}

// Pass appends a success record.
func (w *Writer) Pass(folder, file, action, message string) error {
	return w.Append(folder, file, StatusPass, action, message)
}

// Fail appends a failure record.
func (w *Writer) Fail(folder, file, action, message string) error {
	return w.Append(folder, file, StatusFail, action, message)
}

// Close flushes and closes the underlying log file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func (w *Writer) mirror(record Record) {
	attrs := []logging.Attr{
		logging.String("folder", record.Folder),
		logging.String("file", record.File),
		logging.String("action", record.Action),
		logging.String("message", record.Message),
	}
	switch record.Status {
	case StatusFail:
		w.logger.Warn("audit", logging.Args(attrs...)...)
	default:
		w.logger.Info("audit", logging.Args(append(attrs, logging.String("status", string(record.Status)))...)...)
	}
}
