// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage publishes uploaded photos and generated portraits to an
// S3-compatible bucket so certificates reference them by URL instead of
// carrying them inline. Path-style addressing keeps it working against
// MinIO, Ceph and Hetzner.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"ewed/internal/slug"
)

// immutable is safe because every object key is unique.
const immutable = "public, max-age=31536000, immutable"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Client publishes objects into a single public bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // CDN or custom domain in front of the bucket
	now       func() time.Time
}

// New returns (nil, nil) when endpoint, credentials or bucket are missing,
// so the caller can fall back to inline data URIs.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}
	if region == "" {
		region = "us-east-1"
	}
	endpoint = strings.TrimRight(endpoint, "/")

	return &Client{
		s3: s3.New(s3.Options{
			Region:       region,
			BaseEndpoint: aws.String(endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			UsePathStyle: true,
		}),
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

// Publish uploads data as a public object under prefix and returns its
// URL. It satisfies media.Publisher.
func (c *Client) Publish(ctx context.Context, data []byte, contentType, prefix, name string) (string, error) {
	key := c.ObjectKey(prefix, name, contentType)
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(immutable),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s/%s: %w", c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

// Release deletes the object behind a URL returned by Publish. Data URIs
// and foreign URLs are left alone.
func (c *Client) Release(ctx context.Context, ref string) error {
	key, ok := c.keyFromURL(ref)
	if !ok {
		return nil
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// ObjectKey builds a unique key such as
// "portraits/2026/10/keanu-reeves-<uuid>.png".
func (c *Client) ObjectKey(prefix, name, contentType string) string {
	now := c.now()
	base := slug.Generate(name)
	if base == "" {
		base = "image"
	}
	if prefix == "" {
		prefix = "media"
	}
	return fmt.Sprintf("%s/%d/%02d/%s-%s%s", prefix, now.Year(), now.Month(), base, uuid.NewString(), extensions[contentType])
}

// FileURL is the public URL for key: under the public URL when one is
// set, otherwise path-style on the endpoint.
func (c *Client) FileURL(key string) string {
	return c.base() + key
}

func (c *Client) base() string {
	if c.publicURL != "" {
		return c.publicURL + "/"
	}
	return c.endpoint + "/" + c.bucket + "/"
}

// keyFromURL reverses FileURL. Path-style URLs are accepted even when a
// public URL is configured.
func (c *Client) keyFromURL(ref string) (string, bool) {
	for _, prefix := range []string{c.base(), c.endpoint + "/" + c.bucket + "/"} {
		if key, ok := strings.CutPrefix(ref, prefix); ok && key != "" {
			return key, true
		}
	}
	return "", false
}
