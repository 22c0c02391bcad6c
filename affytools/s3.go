// ===========================================================================
//
// File Name:  s3.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Scheme prefixes source names that are fetched from object storage
const S3Scheme = "s3://"

// ObjectGetter is the part of the S3 client used to read sources
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ParseS3URL splits s3://bucket/path/to/key into bucket and key
func ParseS3URL(name string) (string, string, error) {

	u, err := url.Parse(name)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 location '%s': %w", name, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 location '%s': expected s3://bucket/key", name)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid S3 location '%s': missing object key", name)
	}

	return u.Host, key, nil
}

// NewS3Client builds a client from the default credential chain. Endpoint
// and path-style addressing allow S3-compatible stores such as MinIO.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return client, nil
}

// OpenS3Object returns the body of an object, to be closed by the caller
func OpenS3Object(ctx context.Context, client ObjectGetter, bucket, key string) (io.ReadCloser, error) {

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read s3://%s/%s: %w", bucket, key, err)
	}

	return out.Body, nil
}
