package minio

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/testutil"
	pkgerrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

func newTestClient(t *testing.T, api *MockMinIOAPI) *MinIOClient {
	t.Helper()
	api.On("BucketExists", mock.Anything, "exports-test").Return(true, nil).Once()
	api.On("SetBucketLifecycle", mock.Anything, "exports-test", mock.Anything).Return(nil).Once()
	c, err := NewMinIOClientWithAPI(context.Background(), api, config.MinIOConfig{
		Bucket:        "exports-test",
		PresignExpiry: 15 * time.Minute,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNewMinIOClientWithAPI_CreatesBucketAndRule(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, config.DefaultMinIOBucket).Return(false, nil)
	api.On("MakeBucket", mock.Anything, config.DefaultMinIOBucket, minio.MakeBucketOptions{Region: defaultRegion}).Return(nil)
	api.On("SetBucketLifecycle", mock.Anything, config.DefaultMinIOBucket, mock.MatchedBy(func(c *lifecycle.Configuration) bool {
		return len(c.Rules) == 1 &&
			c.Rules[0].RuleFilter.Prefix == exportPrefix &&
			c.Rules[0].Expiration.Days == exportRetentionDays
	})).Return(nil)

	c, err := NewMinIOClientWithAPI(context.Background(), api, config.MinIOConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMinIOBucket, c.Bucket())
	assert.Equal(t, time.Hour, c.PresignExpiry())
	api.AssertExpectations(t)
}

func TestNewMinIOClientWithAPI_LifecycleFailureIsLogged(t *testing.T) {
	api := new(MockMinIOAPI)
	logger := testutil.NewMockLogger()
	api.On("BucketExists", mock.Anything, "b").Return(true, nil)
	api.On("SetBucketLifecycle", mock.Anything, "b", mock.Anything).Return(errors.New("not implemented"))

	_, err := NewMinIOClientWithAPI(context.Background(), api, config.MinIOConfig{Bucket: "b"}, logger)
	require.NoError(t, err)
	assert.True(t, logger.HasMessage("warn", "Failed to set lifecycle for exports bucket"))
}

func TestNewMinIOClientWithAPI_BucketCheckFails(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "b").Return(false, errors.New("denied"))

	_, err := NewMinIOClientWithAPI(context.Background(), api, config.MinIOConfig{Bucket: "b"}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func TestMinIOClient_HealthCheck(t *testing.T) {
	api := new(MockMinIOAPI)
	c := newTestClient(t, api)

	api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{{Name: "exports-test"}}, nil).Once()
	api.On("BucketExists", mock.Anything, "exports-test").Return(true, nil).Once()
	assert.NoError(t, c.HealthCheck(context.Background()))

	api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{}, nil).Once()
	api.On("BucketExists", mock.Anything, "exports-test").Return(false, nil).Once()
	assert.True(t, pkgerrors.IsCode(c.HealthCheck(context.Background()), pkgerrors.ErrCodeNotFound))

	api.On("ListBuckets", mock.Anything).Return(nil, errors.New("dial tcp")).Once()
	assert.True(t, pkgerrors.IsCode(c.HealthCheck(context.Background()), pkgerrors.ErrCodeServiceUnavailable))

	require.NoError(t, c.Close())
	assert.Equal(t, ErrMinIOClientClosed, c.HealthCheck(context.Background()))
}

type ExportRepositorySuite struct {
	suite.Suite
	api  *MockMinIOAPI
	repo *ExportRepository
}

func (s *ExportRepositorySuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.repo = NewExportRepository(newTestClient(s.T(), s.api), nil)
	s.repo.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
}

func (s *ExportRepositorySuite) TestPut() {
	data := []byte(`{"sasa": 1.5}`)
	meta := map[string]string{"session-id": "s1"}
	s.api.On("PutObject", mock.Anything, "exports-test", "exports/s1/x/3d_features.json", int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json", UserMetadata: meta}).
		Return(minio.UploadInfo{ETag: "abc", Size: int64(len(data))}, nil)

	err := s.repo.Put(context.Background(), "exports/s1/x/3d_features.json", data, "application/json", meta)
	s.Require().NoError(err)
	s.Equal(data, s.api.uploaded)
	s.api.AssertExpectations(s.T())
}

func (s *ExportRepositorySuite) TestPut_SniffsContentType() {
	s.api.On("PutObject", mock.Anything, "exports-test", "k", int64(5),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "text/plain; charset=utf-8" })).
		Return(minio.UploadInfo{}, nil)
	s.NoError(s.repo.Put(context.Background(), "k", []byte("hello"), "", nil))
}

func (s *ExportRepositorySuite) TestPut_Errors() {
	err := s.repo.Put(context.Background(), "", nil, "", nil)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	s.api.On("PutObject", mock.Anything, "exports-test", "k", int64(2), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))
	err = s.repo.Put(context.Background(), "k", []byte("{}"), "application/json", nil)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *ExportRepositorySuite) TestPut_Closed() {
	s.Require().NoError(s.repo.client.Close())
	s.Equal(ErrMinIOClientClosed, s.repo.Put(context.Background(), "k", []byte("{}"), "", nil))
}

func (s *ExportRepositorySuite) TestPresignedURL() {
	u, _ := url.Parse("https://minio.local/exports-test/exports/s1/x/3d_features.json?X-Amz-Signature=abc")
	s.api.On("PresignedGetObject", mock.Anything, "exports-test", "exports/s1/x/3d_features.json", 15*time.Minute,
		mock.MatchedBy(func(v url.Values) bool {
			return v.Get("response-content-disposition") == `attachment; filename="3d_features.json"`
		})).Return(u, nil)

	link, expires, err := s.repo.PresignedURL(context.Background(), "exports/s1/x/3d_features.json")
	s.Require().NoError(err)
	s.Equal(u.String(), link)
	s.Equal(time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC), expires)
}

func (s *ExportRepositorySuite) TestPresignedURL_Failure() {
	s.api.On("PresignedGetObject", mock.Anything, "exports-test", "k", mock.Anything, mock.Anything).
		Return(nil, errors.New("bad credentials"))
	_, _, err := s.repo.PresignedURL(context.Background(), "k")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func TestExportRepositorySuite(t *testing.T) {
	suite.Run(t, new(ExportRepositorySuite))
}
