package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (p *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	body, _ := io.ReadAll(in.Body)
	p.inputs = append(p.inputs, in)
	p.bodies = append(p.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestReportKey(t *testing.T) {
	at := time.Date(2024, 2, 29, 23, 30, 0, 0, time.FixedZone("KST", 9*3600))
	assert.Equal(t, "reports/2024/02/abc.json", ReportKey("abc", at))
}

func TestReportArchivePut(t *testing.T) {
	putter := &fakePutter{}
	archive := newReportArchive(putter, "reports-bucket", logger.Nop())
	archive.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	report := types.AnalysisReport{Analysis: types.RAGAnalysis{Suitability: types.SuitabilitySafe, Score: 80}, Source: types.SourceFallback}
	archive.Put(context.Background(), "r-1", "user-1", types.ProductData{ProductName: "두유"}, report)

	require.Len(t, putter.inputs, 1)
	assert.Equal(t, "reports-bucket", aws.ToString(putter.inputs[0].Bucket))
	assert.Equal(t, "reports/2024/05/r-1.json", aws.ToString(putter.inputs[0].Key))
	assert.Equal(t, "application/json", aws.ToString(putter.inputs[0].ContentType))

	var doc ArchivedReport
	require.NoError(t, json.Unmarshal(putter.bodies[0], &doc))
	assert.Equal(t, "r-1", doc.ID)
	assert.Equal(t, "user-1", doc.UserID)
	assert.Equal(t, "두유", doc.Product.ProductName)
	assert.Equal(t, 80, doc.Report.Analysis.Score)
}

func TestReportArchiveSwallowsFailures(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	archive := newReportArchive(putter, "bucket", nil)
	assert.NotPanics(t, func() {
		archive.Put(context.Background(), "r-1", "", types.ProductData{}, types.AnalysisReport{})
	})

	var disabled *ReportArchive
	assert.NotPanics(t, func() {
		disabled.Put(context.Background(), "r-1", "", types.ProductData{}, types.AnalysisReport{})
	})
	assert.Nil(t, NewReportArchive(nil, nil))
}
