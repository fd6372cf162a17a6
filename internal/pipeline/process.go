package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"finrisk/internal"
	"finrisk/internal/config"
	"finrisk/internal/logger"
	"finrisk/internal/storage"
)

type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	engine *Engine
	log    logger.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{
		db:     db,
		cfg:    cfg,
		engine: NewEngine(cfg.Columns, PolicyFromConfig(cfg)),
		log:    logger.Named("process"),
	}
}

func PolicyFromConfig(cfg config.Config) RiskPolicy {
	return RiskPolicy{Coefficients: cfg.Coefficients.Map(), Default: cfg.Coefficients.Default}
}

func SummaryOptionsFromConfig(cfg config.Config) SummaryOptions {
	return SummaryOptions{RepairOutlierMin: cfg.RepairOutlierMin, RiskUpperBound: cfg.RiskSumUpperBound}
}

type ProcessResult struct {
	UploadID   int
	TraceID    string
	Clean      internal.CleanDataset
	Summary    internal.Summary
	OutputPath string
}

// RegisterFile records a file in the uploads table by content hash. created
// is false when the same bytes were seen before.
func (s *ProcessingService) RegisterFile(path string) (internal.UploadRow, bool, error) {
	inputType, err := InputTypeFromPath(path)
	if err != nil {
		return internal.UploadRow{}, false, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.UploadRow{}, false, err
	}
	sum := sha256.Sum256(blob)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.db.GetUploadByHash(hash)
	if err != nil {
		return internal.UploadRow{}, false, err
	}
	row, err := s.db.UpsertUpload(filepath.Base(path), string(inputType), hash, path)
	if err != nil {
		return internal.UploadRow{}, false, err
	}
	return row, existing == nil, nil
}

// ProcessFile runs one file end to end: register, derive, summarize and,
// when outputPath is set, export.
func (s *ProcessingService) ProcessFile(ctx context.Context, path, sheet, outputPath string) (ProcessResult, error) {
	upload, _, err := s.RegisterFile(path)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.processOrFail(ctx, upload, sheet, outputPath)
}

func (s *ProcessingService) ProcessUpload(ctx context.Context, upload internal.UploadRow, outputPath string) (ProcessResult, error) {
	return s.processOrFail(ctx, upload, s.cfg.DefaultSheet, outputPath)
}

// processOrFail marks the upload failed when processing errors so pending
// scans do not pick it up again.
func (s *ProcessingService) processOrFail(ctx context.Context, upload internal.UploadRow, sheet, outputPath string) (ProcessResult, error) {
	res, err := s.processUpload(ctx, upload, sheet, outputPath)
	if err != nil {
		if uerr := s.db.UpdateUploadStatus(upload.ID, storage.StatusFailed); uerr != nil {
			s.log.Warn(ctx, "marking upload failed", logger.Int("upload_id", upload.ID), logger.Error(uerr))
		}
		return ProcessResult{}, err
	}
	return res, nil
}

// ProcessPending handles fetched uploads one at a time. A failing upload is
// marked failed and does not stop the batch.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, outputDir string) (int, int, error) {
	pending, err := s.db.ListUploadsByStatus(storage.StatusFetched, limit)
	if err != nil {
		return 0, 0, err
	}
	processed, failed := 0, 0
	for _, upload := range pending {
		if ctx.Err() != nil {
			break
		}
		out := ""
		if outputDir != "" {
			out = filepath.Join(outputDir, fmt.Sprintf("%d_%s.xlsx", upload.ID, sanitizeName(upload.Name)))
		}
		if _, err := s.ProcessUpload(ctx, upload, out); err != nil {
			failed++
			s.log.Error(ctx, "upload failed", logger.Int("upload_id", upload.ID), logger.String("name", upload.Name), logger.Error(err))
			continue
		}
		processed++
	}
	return processed, failed, nil
}

func (s *ProcessingService) processUpload(ctx context.Context, upload internal.UploadRow, sheet, outputPath string) (ProcessResult, error) {
	start := time.Now()
	trace := uuid.NewString()

	ds, err := ReadFile(upload.Path, sheet)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("read %s: %w", upload.Name, err)
	}
	readMs := float64(time.Since(start).Milliseconds())

	clean := s.engine.Derive(ctx, ds)
	summary := Summarize(clean, SummaryOptionsFromConfig(s.cfg))

	status := storage.StatusProcessed
	if outputPath != "" {
		if err := ExportCleanToXLSX(clean, summary, outputPath); err != nil {
			return ProcessResult{}, fmt.Errorf("export %s: %w", outputPath, err)
		}
		status = storage.StatusExported
	}
	if err := s.db.UpdateUploadStatus(upload.ID, status); err != nil {
		return ProcessResult{}, err
	}

	counts := map[string]int{
		"rows":              summary.TotalErrors,
		"repairOutliers":    len(summary.RepairOutliers),
		"unparseableAmount": len(summary.UnparseableAmount),
		"unparseableRisk":   len(summary.UnparseableRisk),
		"duplicateColumns":  len(clean.DuplicateColumns),
	}
	timings := map[string]float64{"readMs": readMs, "totalMs": float64(time.Since(start).Milliseconds())}
	if err := s.db.InsertRun(trace, upload.ID, clean.Sheet, summary, timings, counts); err != nil {
		s.log.Warn(ctx, "run log write failed", logger.String("trace_id", trace), logger.Error(err))
	}

	s.log.Info(ctx, "upload processed",
		logger.String("trace_id", trace),
		logger.Int("upload_id", upload.ID),
		logger.String("sheet", clean.Sheet),
		logger.Int("rows", summary.TotalErrors),
		logger.Float64("total_risk", summary.TotalRisk),
		logger.Float64("repair_hours", summary.TotalRepairHours))

	return ProcessResult{UploadID: upload.ID, TraceID: trace, Clean: clean, Summary: summary, OutputPath: outputPath}, nil
}

func sanitizeName(input string) string {
	input = strings.TrimSuffix(input, filepath.Ext(input))
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
