// Package remote checks which daily source files exist in the date-indexed store.
package remote

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultRegion = "eu-west-1"
	filePrefix    = "D_PA_"
	fileSuffix    = ".csv"
)

type ObjectLister interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Config struct {
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// Locator lists the store for the files of a date. Without a client it only
// reports the expected names.
type Locator struct {
	client ObjectLister
	bucket string
	prefix string
}

func NewLocator(client ObjectLister, bucket, prefix string) *Locator {
	return &Locator{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Locator builds a locator on the shared AWS configuration. An empty
// bucket yields a locator that never lists.
func NewS3Locator(ctx context.Context, cfg Config) (*Locator, error) {
	if cfg.Bucket == "" {
		return NewLocator(nil, "", cfg.Prefix), nil
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithDefaultRegion(region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewLocator(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// ExpectedName is the name pattern shown to users for the file of date.
func ExpectedName(date time.Time) string {
	return filePrefix + date.Format("20060102") + "xxxx" + fileSuffix
}

// FilesForDate reports the files of date and of the prior calendar day.
func (l *Locator) FilesForDate(ctx context.Context, date time.Time) (domain.DateFiles, error) {
	previous := date.AddDate(0, 0, -1)
	files := domain.DateFiles{
		Date:     date,
		Current:  domain.RemoteFile{Expected: ExpectedName(date)},
		Previous: domain.RemoteFile{Expected: ExpectedName(previous)},
	}
	if l == nil || l.client == nil {
		return files, nil
	}

	var err error
	if files.Current, err = l.find(ctx, date); err != nil {
		return files, err
	}
	if files.Previous, err = l.find(ctx, previous); err != nil {
		return files, err
	}
	files.Checked = true
	return files, nil
}

func (l *Locator) find(ctx context.Context, date time.Time) (domain.RemoteFile, error) {
	logger := zerolog.Ctx(ctx)

	file := domain.RemoteFile{Expected: ExpectedName(date)}
	prefix := l.prefix + filePrefix + date.Format("20060102")

	var continuationToken *string
	for {
		resp, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return file, fmt.Errorf("failed to list s3://%s/%s: %w", l.bucket, prefix, err)
		}

		for _, obj := range resp.Contents {
			key := aws.ToString(obj.Key)
			if !strings.EqualFold(path.Ext(key), fileSuffix) {
				continue
			}
			file.Key = key
			file.Size = aws.ToInt64(obj.Size)
			file.Found = true
			logger.Debug().Str("key", key).Msg("source file located")
			return file, nil
		}

		if !aws.ToBool(resp.IsTruncated) {
			break
		}
		continuationToken = resp.NextContinuationToken
	}
	return file, nil
}
