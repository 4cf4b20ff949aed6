package blobstore

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fileset/fileset/pkg/config"
)

// S3Driver stores blob bytes in a minio/S3-compatible bucket. It is the
// concrete realization of the spec's "underlying object store" collaborator.
type S3Driver struct {
	client     *minio.Client
	bucketName string
}

func NewS3Driver(cfg *config.Config) (*S3Driver, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioUser, cfg.MinioPass, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := client.BucketExists(ctx, cfg.MinioBucket)
		if errExists != nil || !exists {
			return nil, err
		}
	}

	return &S3Driver{client: client, bucketName: cfg.MinioBucket}, nil
}

func (d *S3Driver) Writer(ctx context.Context, path string, contentType string) (io.WriteCloser, error) {
	r, w := io.Pipe()
	done := make(chan error, 1)

	go func() {
		_, err := d.client.PutObject(ctx, d.bucketName, path, r, -1, minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			r.CloseWithError(err)
			done <- err
			return
		}
		r.Close()
		done <- nil
	}()

	return &syncWriter{writer: w, done: done}, nil
}

type syncWriter struct {
	writer *io.PipeWriter
	done   chan error
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	return sw.writer.Write(p)
}

func (sw *syncWriter) Close() error {
	if err := sw.writer.Close(); err != nil {
		return err
	}
	return <-sw.done
}

func (d *S3Driver) Reader(ctx context.Context, path string) (io.ReadCloser, error) {
	if _, err := d.client.StatObject(ctx, d.bucketName, path, minio.StatObjectOptions{}); err != nil {
		return nil, err
	}
	return d.client.GetObject(ctx, d.bucketName, path, minio.GetObjectOptions{})
}

func (d *S3Driver) Stat(ctx context.Context, path string) (int64, string, error) {
	info, err := d.client.StatObject(ctx, d.bucketName, path, minio.StatObjectOptions{})
	if err != nil {
		return 0, "", err
	}
	return info.Size, info.ContentType, nil
}

func (d *S3Driver) PresignedURL(ctx context.Context, path string, method string, expiry time.Duration) (string, error) {
	if method == "PUT" {
		u, err := d.client.PresignedPutObject(ctx, d.bucketName, path, expiry)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
	u, err := d.client.PresignedGetObject(ctx, d.bucketName, path, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
