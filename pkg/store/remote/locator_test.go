package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(aws.ToString(params.Prefix), aws.ToString(params.ContinuationToken))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.ListObjectsV2Output), args.Error(1)
}

func object(key string, size int64) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size)}
}

func TestExpectedName(t *testing.T) {
	assert.Equal(t, "D_PA_20250314xxxx.csv", ExpectedName(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestFilesForDate_WithoutStore(t *testing.T) {
	files, err := NewLocator(nil, "", "").FilesForDate(context.Background(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, files.Checked)
	assert.Equal(t, "D_PA_20250301xxxx.csv", files.Current.Expected)
	assert.Equal(t, "D_PA_20250228xxxx.csv", files.Previous.Expected)
}

func TestFilesForDate(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListObjectsV2", "in/D_PA_20250314", "").Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{object("in/D_PA_20250314.tmp", 1)},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page2"),
	}, nil)
	lister.On("ListObjectsV2", "in/D_PA_20250314", "page2").Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{object("in/D_PA_202503140830.CSV", 4096)},
		IsTruncated: aws.Bool(false),
	}, nil)
	lister.On("ListObjectsV2", "in/D_PA_20250313", "").Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
	}, nil)

	locator := NewLocator(lister, "alm-inputs", "in/")
	files, err := locator.FilesForDate(context.Background(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, files.Checked)
	assert.True(t, files.Current.Found)
	assert.Equal(t, "in/D_PA_202503140830.CSV", files.Current.Key)
	assert.Equal(t, int64(4096), files.Current.Size)
	assert.False(t, files.Previous.Found)
	assert.Equal(t, "D_PA_20250313xxxx.csv", files.Previous.Expected)

	lister.AssertExpectations(t)
}

func TestFilesForDate_ListError(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListObjectsV2", "D_PA_20250314", "").Return(nil, errors.New("access denied"))

	_, err := NewLocator(lister, "alm-inputs", "").FilesForDate(context.Background(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Locator_NoBucket(t *testing.T) {
	l, err := NewS3Locator(context.Background(), Config{})
	require.NoError(t, err)

	files, err := l.FilesForDate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.False(t, files.Checked)
}
