package registry

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/loader"
	"resilience-rag/internal/models"
)

// demoConfig lists the bundled demo documents and their build settings.
type demoConfig struct {
	Files []demoEntry `yaml:"files"`
}

type demoEntry struct {
	FileName     string              `yaml:"fileName"`
	DocType      string              `yaml:"docType"`
	ColumnSchema []models.ColumnSpec `yaml:"columnSchema"`
}

// LoadDemo copies one demo document into the session as a normal upload.
func (r *Registry) LoadDemo(sessionID, demoDir, demoName string) (string, error) {
	if demoName == "" {
		return "", apperr.Validation("demoName is required")
	}
	src, err := os.Open(filepath.Join(demoDir, demoName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound("demo file %s not found", demoName)
		}
		return "", err
	}
	defer src.Close()

	return r.Upload(sessionID, src, demoName, []string{"demo"}, models.DocTypeOtherResource)
}

// LoadAllDemos loads and builds every document listed in the demo
// directory's demo_config.yaml. Entries that fail are skipped, not fatal.
func (r *Registry) LoadAllDemos(ctx context.Context, sessionID, demoDir string) ([]FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(demoDir, "demo_config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("demo_config.yaml not found in %s", demoDir)
		}
		return nil, err
	}
	var cfg demoConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	var loaded []FileInfo
	for _, entry := range cfg.Files {
		if entry.FileName == "" {
			continue
		}
		fileKey, err := r.LoadDemo(sessionID, demoDir, entry.FileName)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.FileName).Msg("Skipping demo file")
			continue
		}
		if entry.DocType != "" {
			if _, err := r.UpdateInfo(sessionID, fileKey, "", nil, entry.DocType); err != nil {
				log.Warn().Err(err).Str("file", entry.FileName).Msg("Skipping demo file")
				continue
			}
		}
		if loader.IsTabular(filepath.Ext(entry.FileName)) && len(entry.ColumnSchema) > 0 {
			if err := r.MapColumns(sessionID, fileKey, entry.ColumnSchema); err != nil {
				log.Warn().Err(err).Str("file", entry.FileName).Msg("Skipping demo file")
				continue
			}
		}
		if _, err := r.BuildStore(ctx, sessionID, fileKey); err != nil {
			log.Warn().Err(err).Str("file", entry.FileName).Msg("Demo build failed")
			continue
		}
		if info, err := r.UpdateInfo(sessionID, fileKey, "", nil, ""); err == nil {
			loaded = append(loaded, info)
		}
	}
	return loaded, nil
}
