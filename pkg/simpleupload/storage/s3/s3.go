// Package s3 provides a disk backed by Amazon S3 or an S3-compatible service.
package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

// Config options for an S3 disk
type Config struct {
	Name            string // Disk name used by uploaders (default: "s3")
	Region          string // AWS region (default: us-east-1)
	Bucket          string // Default bucket; uploaders may override it
	AccessKeyID     string // Optional; the default credential chain is used when empty
	SecretAccessKey string
	SessionToken    string
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// API is the part of the S3 client the disk uses
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Disk is an S3 implementation of the simpleupload.Disk interface
type Disk struct {
	name   string
	bucket string
	region string
	client API
	signer *postpolicy.Signer
}

// New creates an S3 disk, loading AWS configuration the standard way
func New(ctx context.Context, config Config) (*Disk, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		// Use provided credentials
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, config.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Custom endpoint for S3-compatible services (MinIO, R2, etc.)
	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	signer := postpolicy.New(
		postpolicy.WithCredentials(awsCfg.Credentials),
		postpolicy.WithRegion(config.Region),
		postpolicy.WithEndpoint(config.Endpoint, config.UsePathStyle),
	)

	disk := NewWithClient(config, client, signer)

	// Create bucket if requested
	if config.CreateBucketIfNotExist {
		if config.Bucket == "" {
			return nil, errors.New("bucket name is required to create it")
		}
		if err := disk.createBucketIfNotExists(ctx); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return disk, nil
}

// NewWithClient builds a disk from an existing client and signer
func NewWithClient(config Config, client API, signer *postpolicy.Signer) *Disk {
	name := config.Name
	if name == "" {
		name = simpleupload.DefaultDisk
	}
	region := config.Region
	if region == "" {
		region = "us-east-1"
	}
	return &Disk{
		name:   name,
		bucket: config.Bucket,
		region: region,
		client: client,
		signer: signer,
	}
}

// Name returns the disk name
func (d *Disk) Name() string { return d.name }

// Bucket returns the configured bucket
func (d *Disk) Bucket() string { return d.bucket }

// PresignPost signs a browser POST policy for bucket
func (d *Disk) PresignPost(ctx context.Context, bucket string, inputs map[string]string, conditions []postpolicy.Condition, expires time.Duration) (*postpolicy.Post, error) {
	return d.signer.Presign(ctx, bucket, inputs, conditions, expires)
}

// Stat confirms an object exists with HeadObject
func (d *Disk) Stat(ctx context.Context, bucket, key string) (*simpleupload.ObjectInfo, error) {
	result, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", simpleupload.ErrObjectNotFound, bucket, key)
		}
		return nil, &simpleupload.DiskError{Disk: d.name, Key: key, Op: "stat", Err: err}
	}

	info := &simpleupload.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: aws.ToString(result.ContentType),
		ETag:        aws.ToString(result.ETag),
		Metadata:    result.Metadata,
	}
	if result.LastModified != nil {
		info.LastModified = *result.LastModified
	}
	if info.ContentType == "" {
		info.ContentType = "application/octet-stream"
	}
	return info, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (d *Disk) createBucketIfNotExists(ctx context.Context) error {
	_, err := d.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(d.bucket),
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) && apiErrorCode(err) != "BadRequest" {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(d.bucket),
	}
	// Add location constraint for regions other than us-east-1
	if d.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(d.region),
		}
	}

	if _, err := d.client.CreateBucket(ctx, input); err != nil {
		switch apiErrorCode(err) {
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return nil
		}
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	switch apiErrorCode(err) {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
