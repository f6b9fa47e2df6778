package controller

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"golang.org/x/sync/errgroup"
)

const WorkerCount = 3

// S3ClientRepository mirrors export archives to an S3 compatible bucket.
type S3ClientRepository interface {
	CreatePresignedUrl(ctx context.Context, objectName string, expiration int) (string, error)
	ListFiles(ctx context.Context, prefix string) ([]string, error)
	UploadFiles(ctx context.Context, prefix string, files ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

//go:generate mockgen -source=s3client.go -destination=s3mock.go -package=controller
type PresignClientInterface interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type UploaderInterface interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type ClientInterface interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObjects(context.Context, *s3.DeleteObjectsInput, ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3Client struct {
	bucketName    string
	Client        ClientInterface
	PresignClient PresignClientInterface
	Uploader      UploaderInterface
	waitTimeout   time.Duration
}

func NewS3Client(ctx context.Context, url string, accessKeyID string, accessKeySecret string, bucketName string, region string, sslVerify bool) (S3ClientRepository, error) {
	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if !sslVerify {
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{}
			}
			tr.TLSClientConfig.InsecureSkipVerify = true
		}
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(httpClient),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
	)
	if err != nil {
		return nil, err
	}
	realClient := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if url != "" {
			o.BaseEndpoint = aws.String(url)
		}
		o.UsePathStyle = true
		// S3 compatible stores reject the default payload checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &S3Client{
		bucketName:    bucketName,
		Client:        realClient,
		PresignClient: s3.NewPresignClient(realClient),
		Uploader: manager.NewUploader(realClient, func(u *manager.Uploader) {
			u.PartSize = 64 * 1024 * 1024
		}),
		waitTimeout: time.Minute,
	}, nil
}

func (s *S3Client) CreatePresignedUrl(ctx context.Context, objectName string, expiration int) (string, error) {
	if expiration == 0 {
		expiration = 3600
	}
	resp, err := s.PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectName),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Duration(expiration) * time.Second
	})
	if err != nil {
		return "", fmt.Errorf("failed to create presigned url: %w", err)
	}
	return resp.URL, nil
}

func (s *S3Client) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.Trim(prefix, "/")
	var (
		files []string
		cont  *string
	)
	for {
		objects, err := s.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucketName),
			Prefix:            aws.String(prefix),
			ContinuationToken: cont,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, object := range objects.Contents {
			files = append(files, aws.ToString(object.Key))
		}
		if !aws.ToBool(objects.IsTruncated) {
			return files, nil
		}
		cont = objects.NextContinuationToken
	}
}

// UploadFiles uploads local files under prefix with a small worker pool. Keys are prefix/<file name>.
func (s *S3Client) UploadFiles(parent context.Context, prefix string, files ...string) error {
	g, ctx := errgroup.WithContext(parent)
	jobs := make(chan string)
	prefix = strings.Trim(prefix, "/")

	g.Go(func() error {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < WorkerCount; i++ {
		g.Go(func() error {
			return s.workerUpload(ctx, jobs, prefix)
		})
	}
	return g.Wait()
}

func (s *S3Client) workerUpload(ctx context.Context, jobs <-chan string, prefix string) error {
	for file := range jobs {
		key := path.Join(prefix, filepath.Base(file))
		if err := s.uploadFile(ctx, file, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Client) uploadFile(ctx context.Context, src string, dest string) error {
	dest = strings.Trim(dest, "/")
	r, w := io.Pipe()

	go func() {
		defer func() {
			_ = w.Close()
		}()
		file, err := os.Open(src)
		if err != nil {
			_ = w.CloseWithError(fmt.Errorf("failed to open file %s: %w", src, err))
			return
		}
		defer func() {
			_ = file.Close()
		}()

		if _, err = io.Copy(w, file); err != nil {
			_ = w.CloseWithError(fmt.Errorf("failed to copy file %s: %w", src, err))
		}
	}()

	_, err := s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(dest),
		Body:        r,
		ContentType: aws.String(contentType(dest)),
	})
	// unblock the copier if the uploader gave up before draining the pipe
	_ = r.Close()
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "EntityTooLarge" {
			return fmt.Errorf("error while uploading object to %s. The object is too large.\n"+
				"The maximum size for a multipart upload is 5TB", s.bucketName)
		}
		return fmt.Errorf("couldn't upload object to %v:%v: %w", s.bucketName, dest, err)
	}
	timeout := s.waitTimeout
	if timeout == 0 {
		timeout = time.Minute
	}
	err = s3.NewObjectExistsWaiter(s.Client).Wait(
		ctx,
		&s3.HeadObjectInput{
			Bucket: aws.String(s.bucketName),
			Key:    aws.String(dest),
		},
		timeout)
	if err != nil {
		return fmt.Errorf("failed attempt to wait for object %s to exist err: %w", dest, err)
	}
	return nil
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".zip":
		return "application/zip"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

func withContentMD5(o *s3.Options) {
	o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
		_, _ = stack.Initialize.Remove("AWSChecksum:SetupInputContext")
		_, _ = stack.Build.Remove("AWSChecksum:RequestMetricsTracking")
		_, _ = stack.Finalize.Remove("AWSChecksum:ComputeInputPayloadChecksum")
		_, _ = stack.Finalize.Remove("addInputChecksumTrailer")

		return smithyhttp.AddContentChecksumMiddleware(stack)
	})
}

func (s *S3Client) DeletePrefix(ctx context.Context, prefix string) error {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Errorf("prefix is empty")
	}

	var cont *string
	for {
		out, err := s.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucketName),
			Prefix:            aws.String(prefix),
			ContinuationToken: cont,
		})
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}

		if len(out.Contents) > 0 {
			objs := make([]types.ObjectIdentifier, 0, len(out.Contents))
			for _, o := range out.Contents {
				if o.Key == nil {
					continue
				}
				objs = append(objs, types.ObjectIdentifier{Key: o.Key})
			}

			_, err = s.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucketName),
				Delete: &types.Delete{Objects: objs, Quiet: aws.Bool(true)},
			}, withContentMD5)
			if err != nil {
				return fmt.Errorf("delete objects: %w", err)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		cont = out.NextContinuationToken
	}
	return nil
}
