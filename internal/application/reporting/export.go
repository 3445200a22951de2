package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// Export file properties.
const (
	ExportFileName    = "3d_features.json"
	ExportContentType = "application/json"
	exportIndent      = "    "
)

// ExportJSON serializes features as UTF-8 JSON with a four-space indent.  Key
// order and number literals are kept as received; HTML and non-ASCII
// characters are not escaped.  Values JSON cannot represent are written as
// strings.
func ExportJSON(f *domain.Features3D) ([]byte, error) {
	if f == nil {
		f = domain.NewMapping()
	}
	compact, err := f.MarshalJSON()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode 3D features")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", exportIndent); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to indent 3D features")
	}
	return buf.Bytes(), nil
}

// ArtifactStore keeps exported files and issues time-limited download links.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	PresignedURL(ctx context.Context, key string) (string, time.Time, error)
}

// Artifact describes a stored export.
type Artifact struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ErrExportStoreDisabled is returned when no artifact store is configured.
var ErrExportStoreDisabled = apperrors.New(apperrors.ErrCodeFeatureDisabled, "export storage is not enabled")

// Exporter uploads feature exports to an ArtifactStore.
type Exporter struct {
	store   ArtifactStore
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	now     func() time.Time
}

// NewExporter returns an Exporter.  A nil store yields ErrExportStoreDisabled
// on Store.
func NewExporter(store ArtifactStore, logger logging.Logger, metrics *prometheus.AppMetrics) *Exporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopMetrics()
	}
	return &Exporter{store: store, logger: logger, metrics: metrics, now: time.Now}
}

// Enabled reports whether uploads are possible.
func (e *Exporter) Enabled() bool { return e != nil && e.store != nil }

// Store serializes f and uploads it under exports/<session>/<timestamp>/.
func (e *Exporter) Store(ctx context.Context, sessionID string, f *domain.Features3D) (*Artifact, error) {
	if !e.Enabled() {
		return nil, ErrExportStoreDisabled
	}
	if f.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrCodeFeaturesNotAvailable, domain.MsgNoFeatures)
	}
	data, err := ExportJSON(f)
	if err != nil {
		prometheus.RecordExport(e.metrics, "object_store", false)
		return nil, err
	}

	key := ExportKey(sessionID, e.now())
	meta := map[string]string{"session-id": sessionID, "feature-count": fmt.Sprint(f.Len())}
	if err := e.store.Put(ctx, key, data, ExportContentType, meta); err != nil {
		prometheus.RecordExport(e.metrics, "object_store", false)
		e.logger.WithContext(ctx).Error("export upload failed", logging.String("key", key), logging.Err(err))
		return nil, err
	}
	url, expires, err := e.store.PresignedURL(ctx, key)
	if err != nil {
		prometheus.RecordExport(e.metrics, "object_store", false)
		return nil, err
	}
	prometheus.RecordExport(e.metrics, "object_store", true)
	e.logger.WithContext(ctx).Info("export stored",
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return &Artifact{
		Key:         key,
		FileName:    ExportFileName,
		ContentType: ExportContentType,
		Size:        len(data),
		URL:         url,
		ExpiresAt:   expires,
	}, nil
}

// ExportKey builds the object key for an export.
func ExportKey(sessionID string, at time.Time) string {
	if sessionID == "" {
		sessionID = "anonymous"
	}
	return path.Join("exports", sessionID, at.UTC().Format("20060102T150405.000Z"), ExportFileName)
}
