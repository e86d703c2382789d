package minio

import (
	"context"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// BucketExists checks if a bucket exists
func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}

	if err := ValidateBucketName(bucketName); err != nil {
		return false, wrapError("BucketExists", ErrInvalidBucketName, bucketName, "")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, wrapError("BucketExists", err, bucketName, "")
	}

	return exists, nil
}

// MakeBucket creates a new bucket in the configured region
func (c *Client) MakeBucket(ctx context.Context, bucketName string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	if err := ValidateBucketName(bucketName); err != nil {
		return wrapError("MakeBucket", ErrInvalidBucketName, bucketName, "")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err := c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: c.config.Region})
	if err != nil {
		return wrapError("MakeBucket", err, bucketName, "")
	}

	c.logger.Info("bucket created",
		zap.String("bucket", bucketName),
		zap.String("region", c.config.Region),
	)

	return nil
}

// EnsureBucket creates the bucket unless it already exists
func (c *Client) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := c.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = c.MakeBucket(ctx, bucketName)
	if bucketOwned(err) {
		return nil
	}
	return err
}
