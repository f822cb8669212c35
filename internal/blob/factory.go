package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/fdg312/mealcart/internal/config"
	"go.uber.org/zap"
)

// NewBlobStore builds a blob store using mode local|s3|auto. Local mode
// returns a nil store: exports are then served inline only.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger *zap.Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}
	log := logger.Named("blob")

	switch mode {
	case appcfg.BlobModeLocal:
		log.Info("blob storage disabled", zap.String("mode", "local"), zap.String("reason", "forced"))
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			log.Info("blob storage disabled",
				zap.String("mode", "local"),
				zap.String("code", "s3_not_configured"),
				zap.Strings("missing", cfg.S3.MissingRequired()),
				zap.String("s3", cfg.S3.DiagnosticsSummary()),
			)
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := NewS3Store(ctx, s3Options(cfg.S3))
		if err != nil {
			log.Warn("S3 init failed, falling back to local", zap.Error(err))
			return nil, appcfg.BlobModeLocal, nil
		}
		log.Info("blob storage ready", zap.String("mode", "s3"), zap.String("s3", cfg.S3.DiagnosticsSummary()))
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := NewS3Store(ctx, s3Options(cfg.S3))
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}
		log.Info("blob storage ready", zap.String("mode", "s3"), zap.String("s3", cfg.S3.DiagnosticsSummary()))
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func s3Options(c appcfg.S3Config) S3Options {
	return S3Options{
		Endpoint:        c.Endpoint,
		Region:          c.Region,
		Bucket:          c.Bucket,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		PublicBaseURL:   c.PublicBaseURL,
		PreferPublicURL: c.PreferPublicURL,
	}
}
