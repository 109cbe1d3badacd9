package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// ObjectPutter is the part of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchivedReport is the document written for each analysis.
type ArchivedReport struct {
	ID         string               `json:"id"`
	UserID     string               `json:"userId,omitempty"`
	Product    types.ProductData    `json:"product"`
	Report     types.AnalysisReport `json:"report"`
	ArchivedAt time.Time            `json:"archivedAt"`
}

// ReportArchive writes analysis reports to S3. A nil archive, or one without
// a client, does nothing.
type ReportArchive struct {
	client ObjectPutter
	bucket string
	log    *logger.Logger
	now    func() time.Time
}

// NewReportArchive returns nil when cfg is nil, which disables archiving.
func NewReportArchive(cfg *config.S3Config, log *logger.Logger) *ReportArchive {
	if cfg == nil || cfg.Client == nil {
		return nil
	}
	return newReportArchive(cfg.Client, cfg.BucketName, log)
}

func newReportArchive(client ObjectPutter, bucket string, log *logger.Logger) *ReportArchive {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportArchive{client: client, bucket: bucket, log: log, now: time.Now}
}

// ReportKey returns reports/<yyyy>/<mm>/<id>.json for the given time.
func ReportKey(id string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("reports/%04d/%02d/%s.json", at.Year(), int(at.Month()), id)
}

// Put stores the report. Failures are logged and never returned.
func (a *ReportArchive) Put(ctx context.Context, id, userID string, product types.ProductData, report types.AnalysisReport) {
	if a == nil || a.client == nil || id == "" {
		return
	}
	now := a.now()
	body, err := json.Marshal(ArchivedReport{
		ID:         id,
		UserID:     userID,
		Product:    product,
		Report:     report,
		ArchivedAt: now.UTC(),
	})
	if err != nil {
		a.log.Warn("failed to marshal report for archive", "report_id", id, "error", err)
		return
	}

	key := ReportKey(id, now)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		a.log.Warn("failed to archive report", "key", key, "error", err)
		return
	}
	a.log.Debug("report archived", "key", key)
}
