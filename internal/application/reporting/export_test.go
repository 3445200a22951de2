package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/testutil"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

func TestExportJSON(t *testing.T) {
	nested := domain.NewMapping()
	nested.Set("a", json.Number("1"))

	f := domain.NewMapping()
	f.Set("name", "<b>é</b>")
	f.Set("x", json.Number("1.50"))
	f.Set("empty", nil)
	f.Set("nested", nested)

	data, err := ExportJSON(f)
	require.NoError(t, err)
	assert.Equal(t, "{\n"+
		"    \"name\": \"<b>é</b>\",\n"+
		"    \"x\": 1.50,\n"+
		"    \"empty\": null,\n"+
		"    \"nested\": {\n"+
		"        \"a\": 1\n"+
		"    }\n"+
		"}", string(data))
}

func TestExportJSON_ReparsesToSameMapping(t *testing.T) {
	nested := domain.NewMapping()
	nested.Set("x1", json.Number("0.125"))
	nested.Set("label", "ring")

	f := domain.NewMapping()
	f.Set("dipole_moment", json.Number("1.850"))
	f.Set("sasa", json.Number("120.50"))
	f.Set("f_freedom", json.Number("2"))
	f.Set("homo_energy", json.Number("-2.5e-1"))
	f.Set("identificator", "mol-1")
	f.Set("cis/trans", "trans")
	f.Set("planar", true)
	f.Set("mol_volume", nil)
	f.Set("angles", []interface{}{json.Number("109.5"), json.Number("90")})
	f.Set("conformer", nested)
	f.Set("energy", math.Inf(1))
	f.Set("ratio", math.NaN())

	data, err := ExportJSON(f)
	require.NoError(t, err)

	var back domain.Mapping
	require.NoError(t, json.Unmarshal(data, &back))

	want := f.Clone()
	want.Set("energy", "+Inf")
	want.Set("ratio", "NaN")
	assert.Equal(t, want.Keys(), back.Keys())
	assert.Equal(t, *want, back)

	v, _ := back.Get("sasa")
	assert.Equal(t, json.Number("120.50"), v)
}

func TestExportJSON_Empty(t *testing.T) {
	data, err := ExportJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

type fakeStore struct {
	puts   map[string][]byte
	meta   map[string]map[string]string
	putErr error
	urlErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{puts: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (s *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.puts[key] = data
	s.meta[key] = metadata
	return nil
}

func (s *fakeStore) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	if s.urlErr != nil {
		return "", time.Time{}, s.urlErr
	}
	return "https://store.local/" + key + "?sig=1", time.Date(2026, 1, 2, 4, 4, 5, 0, time.UTC), nil
}

func TestExporter_Store(t *testing.T) {
	store := newFakeStore()
	log := testutil.NewMockLogger()
	e := NewExporter(store, log, nil)
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	art, err := e.Store(context.Background(), "sess-1", sampleFeatures())
	require.NoError(t, err)

	wantKey := "exports/sess-1/20260102T030405.000Z/3d_features.json"
	assert.Equal(t, wantKey, art.Key)
	assert.Equal(t, ExportFileName, art.FileName)
	assert.Equal(t, ExportContentType, art.ContentType)
	assert.Equal(t, "https://store.local/"+wantKey+"?sig=1", art.URL)

	expected, err := ExportJSON(sampleFeatures())
	require.NoError(t, err)
	assert.Equal(t, expected, store.puts[wantKey])
	assert.Equal(t, len(expected), art.Size)
	assert.Equal(t, "10", store.meta[wantKey]["feature-count"])
	assert.True(t, log.HasMessage("info", "export stored"))
}

func TestExporter_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewExporter(nil, nil, nil).Store(ctx, "s", sampleFeatures())
	assert.ErrorIs(t, err, ErrExportStoreDisabled)
	assert.False(t, NewExporter(nil, nil, nil).Enabled())

	store := newFakeStore()
	_, err = NewExporter(store, nil, nil).Store(ctx, "s", domain.NewMapping())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFeaturesNotAvailable))

	store.putErr = errors.New("bucket gone")
	_, err = NewExporter(store, nil, nil).Store(ctx, "s", sampleFeatures())
	assert.EqualError(t, err, "bucket gone")

	store.putErr = nil
	store.urlErr = errors.New("presign failed")
	_, err = NewExporter(store, nil, nil).Store(ctx, "s", sampleFeatures())
	assert.EqualError(t, err, "presign failed")
}

func TestExportKey(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 30, 0, 123e6, time.FixedZone("x", 3600))
	assert.Equal(t, "exports/anonymous/20261019T073000.123Z/3d_features.json", ExportKey("", at))
}
