package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"finrisk/internal/config"
	"finrisk/internal/logger"
	"finrisk/internal/pipeline"
	"finrisk/internal/storage"
)

const lastCycleKey = "watch.last_cycle"

// Service polls the inbox directory and processes new uploads one by one.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
	log       logger.Logger
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{
		db:        db,
		cfg:       cfg,
		processor: pipeline.NewProcessingService(db, cfg),
		log:       logger.Named("watch"),
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.Error(ctx, "watch cycle failed", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type CycleResult struct {
	Found     int
	New       int
	Processed int
	Failed    int
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	if err := os.MkdirAll(s.cfg.InboxDir, 0o755); err != nil {
		return res, err
	}

	files, err := s.scanInbox()
	if err != nil {
		return res, err
	}
	res.Found = len(files)
	for _, path := range files {
		_, created, err := s.processor.RegisterFile(path)
		if err != nil {
			s.log.Warn(ctx, "skipping inbox file", logger.String("path", path), logger.Error(err))
			continue
		}
		if created {
			res.New++
		}
	}

	outputDir := ""
	if s.cfg.WatchAutoExport {
		outputDir = filepath.Join(s.cfg.OutputDir, "watch")
	}
	res.Processed, res.Failed, err = s.processor.ProcessPending(ctx, 200, outputDir)
	if err != nil {
		return res, err
	}

	_ = s.db.SetMetadata(lastCycleKey, time.Now().UTC().Format(time.RFC3339))
	s.log.Info(ctx, "watch cycle done",
		logger.Int("found", res.Found),
		logger.Int("new", res.New),
		logger.Int("processed", res.Processed),
		logger.Int("failed", res.Failed))
	return res, nil
}

func (s *Service) scanInbox() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' || e.Name()[0] == '~' {
			continue
		}
		path := filepath.Join(s.cfg.InboxDir, e.Name())
		if _, err := pipeline.InputTypeFromPath(path); err != nil {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}
