// path: pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mirqab/events"
	"mirqab/imaging"
	"mirqab/llm"
	"mirqab/metrics"
	"mirqab/models"
	"mirqab/segment"
	"mirqab/storage"
	"mirqab/store"
)

// Analyzer is the captioning side of the LLM client.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, jpegData []byte) (*models.Analysis, error)
	Available() bool
}

// Pipeline turns an uploaded image into a persisted detection report.
type Pipeline struct {
	seg      segment.Segmenter
	analyzer Analyzer
	reports  store.ReportStore
	images   storage.ImageStore
	events   *events.Publisher
	metrics  *metrics.Metrics
	log      *logrus.Entry

	inferTimeout time.Duration
	minRegionPx  int
}

// New wires the pipeline. events and metrics may be nil.
func New(seg segment.Segmenter, analyzer Analyzer, reports store.ReportStore, images storage.ImageStore,
	pub *events.Publisher, m *metrics.Metrics, log *logrus.Entry,
	inferTimeout time.Duration, minRegionPx int) *Pipeline {
	if inferTimeout <= 0 {
		inferTimeout = 45 * time.Second
	}
	if minRegionPx <= 0 {
		minRegionPx = 100
	}
	return &Pipeline{
		seg:          seg,
		analyzer:     analyzer,
		reports:      reports,
		images:       images,
		events:       pub,
		metrics:      m,
		log:          log,
		inferTimeout: inferTimeout,
		minRegionPx:  minRegionPx,
	}
}

// SubmitInput is one uploaded image plus capture metadata.
type SubmitInput struct {
	ImageData      []byte
	Location       *models.Location
	SourceDeviceID string
}

// SubmitResult carries the detection outcome and, when a report was
// persisted, the composed report plus browser-ready images.
type SubmitResult struct {
	Detection       bool
	SoldierCount    int
	Regions         []segment.Region
	OriginalDataURI string
	OverlayDataURI  string
	Report          *models.Report
}

// Submit runs validate → segment → overlay → caption → persist.
// Inference failures abort with nothing persisted; caption failures degrade;
// store failures abort and leave no half-written report behind.
func (p *Pipeline) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	img, err := imaging.Decode(in.ImageData)
	if err != nil {
		p.metrics.CountSubmission("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	mask, err := p.runInference(ctx, in.ImageData)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.metrics.CountSubmission("timeout")
			return nil, fmt.Errorf("%w after %s", ErrDetectionTimeout, p.inferTimeout)
		}
		p.metrics.CountSubmission("detection_failed")
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}

	regions := segment.ExtractRegions(mask, p.minRegionPx)
	count := len(regions)

	if count == 0 {
		p.metrics.CountSubmission("no_detection")
		return &SubmitResult{Detection: false, SoldierCount: 0}, nil
	}

	origJPEG, err := imaging.EncodeJPEG(img)
	if err != nil {
		p.metrics.CountSubmission("detection_failed")
		return nil, fmt.Errorf("%w: encode original: %v", ErrDetectionFailed, err)
	}
	overlayJPEG, err := imaging.EncodeJPEG(imaging.Overlay(img, mask, 0.5))
	if err != nil {
		p.metrics.CountSubmission("detection_failed")
		return nil, fmt.Errorf("%w: encode overlay: %v", ErrDetectionFailed, err)
	}

	analysis, degraded := p.caption(ctx, origJPEG, count)

	now := time.Now().UTC()
	reportID := models.NewReportID(now)
	rlog := p.log.WithField("report_id", reportID)

	originalURL, segmentedURL, err := p.storeImages(reportID, origJPEG, overlayJPEG)
	if err != nil {
		rlog.WithError(err).Error("image store write failed")
		p.metrics.CountSubmission("persistence_failed")
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	report := &models.Report{
		ReportID:            reportID,
		Timestamp:           now,
		Location:            in.Location,
		SoldierCount:        analysis.SoldierCount,
		Environment:         analysis.Environment,
		AttireAndCamouflage: analysis.AttireAndCamouflage,
		Equipment:           analysis.Equipment,
		Summary:             analysis.Summary,
		AnalysisDegraded:    degraded,
		ImageSnapshotURL:    originalURL,
		SegmentedImageURL:   segmentedURL,
		Severity:            models.DeriveSeverity(analysis.SoldierCount),
		Status:              models.StatusNew,
		Assignee:            models.DefaultAssignee,
		SourceDeviceID:      in.SourceDeviceID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := p.reports.Save(ctx, report); err != nil {
		// keep the store consistent: no report means no referenced images
		_ = p.images.Delete(originalURL)
		_ = p.images.Delete(segmentedURL)
		rlog.WithError(err).Error("report store write failed")
		p.metrics.CountSubmission("persistence_failed")
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	p.events.ReportCreated(report)
	p.metrics.CountSubmission("detected")
	p.metrics.CountSoldiers(report.SoldierCount)
	rlog.WithFields(logrus.Fields{
		"soldier_count": report.SoldierCount,
		"device":        report.SourceDeviceID,
		"degraded":      degraded,
	}).Info("detection report created")

	return &SubmitResult{
		Detection:       true,
		SoldierCount:    report.SoldierCount,
		Regions:         regions,
		OriginalDataURI: imaging.ToDataURI(origJPEG, "image/jpeg"),
		OverlayDataURI:  imaging.ToDataURI(overlayJPEG, "image/jpeg"),
		Report:          report,
	}, nil
}

// InspectResult is the outcome of a segmentation dry run.
type InspectResult struct {
	SoldierCount   int
	Regions        []segment.Region
	OverlayDataURI string
}

// Inspect runs decode and inference only, persisting nothing; it backs the
// segmentation debug endpoint used to verify a deployed model.
func (p *Pipeline) Inspect(ctx context.Context, imageData []byte) (*InspectResult, error) {
	img, err := imaging.Decode(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	mask, err := p.runInference(ctx, imageData)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrDetectionTimeout, p.inferTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}

	regions := segment.ExtractRegions(mask, p.minRegionPx)
	overlayJPEG, err := imaging.EncodeJPEG(imaging.Overlay(img, mask, 0.5))
	if err != nil {
		return nil, fmt.Errorf("%w: encode overlay: %v", ErrDetectionFailed, err)
	}

	return &InspectResult{
		SoldierCount:   len(regions),
		Regions:        regions,
		OverlayDataURI: imaging.ToDataURI(overlayJPEG, "image/jpeg"),
	}, nil
}

// IngestInput is a pre-computed detection pushed by an edge device.
type IngestInput struct {
	SourceDeviceID string
	ObjectCount    int
	SummaryText    string
	Location       *models.Location
	ImageData      []byte // optional JPEG snapshot
}

// Ingest stores a device-originated report without running local inference.
func (p *Pipeline) Ingest(ctx context.Context, in IngestInput) (*models.Report, error) {
	now := time.Now().UTC()
	reportID := models.NewReportID(now)

	var imageURL string
	if len(in.ImageData) > 0 {
		url, err := p.images.Put(reportID, "detection", in.ImageData)
		if err != nil {
			p.metrics.CountSubmission("persistence_failed")
			return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		imageURL = url
	}

	summary := in.SummaryText
	if summary == "" {
		summary = "Detection event"
	}

	report := &models.Report{
		ReportID:            reportID,
		Timestamp:           now,
		Location:            in.Location,
		SoldierCount:        in.ObjectCount,
		Environment:         "Unknown",
		AttireAndCamouflage: summary,
		Equipment:           "Unknown",
		Summary:             summary,
		AnalysisDegraded:    true,
		ImageSnapshotURL:    imageURL,
		Severity:            models.DeriveSeverity(in.ObjectCount),
		Status:              models.StatusNew,
		Assignee:            models.DefaultAssignee,
		SourceDeviceID:      in.SourceDeviceID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := p.reports.Save(ctx, report); err != nil {
		if imageURL != "" {
			_ = p.images.Delete(imageURL)
		}
		p.metrics.CountSubmission("persistence_failed")
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	p.events.ReportCreated(report)
	p.metrics.CountSubmission("detected")
	p.metrics.CountSoldiers(report.SoldierCount)
	return report, nil
}

// runInference bounds the blocking model call so a stuck backend cannot hang
// the request goroutine past the configured timeout.
func (p *Pipeline) runInference(ctx context.Context, imageData []byte) (*segment.Mask, error) {
	if p.seg == nil {
		return nil, errors.New("segmentation model not loaded")
	}
	ictx, cancel := context.WithTimeout(ctx, p.inferTimeout)
	defer cancel()

	type result struct {
		mask *segment.Mask
		err  error
	}
	ch := make(chan result, 1)
	start := time.Now()

	go func() {
		mask, err := p.seg.Predict(ictx, imageData)
		ch <- result{mask, err}
	}()

	select {
	case r := <-ch:
		p.metrics.ObserveInference(time.Since(start))
		if r.err != nil && ictx.Err() != nil {
			return nil, ictx.Err()
		}
		return r.mask, r.err
	case <-ictx.Done():
		return nil, ictx.Err()
	}
}

// caption asks the vision model for structured analysis. Captioning is
// best-effort: any failure falls back to placeholder fields and marks the
// report degraded, since detection is the primary value.
func (p *Pipeline) caption(ctx context.Context, jpegData []byte, regionCount int) (*models.Analysis, bool) {
	if p.analyzer == nil || !p.analyzer.Available() {
		return llm.FallbackAnalysis(regionCount), true
	}

	start := time.Now()
	analysis, err := p.analyzer.AnalyzeImage(ctx, jpegData)
	p.metrics.ObserveLLM("analyze", time.Since(start))
	if err != nil {
		p.log.WithError(err).Warn("caption adapter failed, proceeding degraded")
		return llm.FallbackAnalysis(regionCount), true
	}

	// The segmentation model found soldiers; trust it over a zero from the
	// captioner so the two adapters never contradict within one report.
	if analysis.SoldierCount == 0 && regionCount > 0 {
		analysis.SoldierCount = regionCount
		analysis.HasCamouflage = true
	}
	return analysis, false
}

func (p *Pipeline) storeImages(reportID string, origJPEG, overlayJPEG []byte) (string, string, error) {
	originalURL, err := p.images.Put(reportID, "original", origJPEG)
	if err != nil {
		return "", "", err
	}
	segmentedURL, err := p.images.Put(reportID, "segmented", overlayJPEG)
	if err != nil {
		_ = p.images.Delete(originalURL)
		return "", "", err
	}
	return originalURL, segmentedURL, nil
}
