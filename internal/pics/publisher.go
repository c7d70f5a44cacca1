package pics

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acm19/webpics/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// derivativeCacheControl is set on uploaded derivatives. Their names are stable per source, so
// a changed source must be re-published to refresh caches.
const derivativeCacheControl = "public, max-age=86400"

// s3API is the subset of the S3 client used by the publisher.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PublishResult counts the outcome of a publish run.
type PublishResult struct {
	Uploaded int
	Skipped  int
	Failed   int
}

// Publisher uploads a finished derivative directory to S3.
type Publisher interface {
	// Publish uploads every derivative in dir to bucket under prefix. Objects whose ETag already
	// matches the local MD5 are skipped.
	Publish(ctx context.Context, dir, bucket, prefix string, maxConcurrent int) (PublishResult, error)
}

// s3Publisher implements the Publisher interface
type s3Publisher struct {
	client s3API
}

// NewS3Publisher creates a Publisher from the default AWS configuration.
func NewS3Publisher(ctx context.Context) (Publisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newS3PublisherWithClient(s3.NewFromConfig(cfg)), nil
}

func newS3PublisherWithClient(client s3API) *s3Publisher {
	return &s3Publisher{client: client}
}

// Publish uploads the derivatives of dir in parallel.
func (p *s3Publisher) Publish(ctx context.Context, dir, bucket, prefix string, maxConcurrent int) (PublishResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to read derivative directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || IsTempName(entry.Name()) {
			continue
		}
		if _, err := ParseFormat(filepath.Ext(entry.Name())); err != nil {
			continue
		}
		files = append(files, entry.Name())
	}

	if len(files) == 0 {
		logger.Info("No derivatives found to publish", "dir", dir)
		return PublishResult{}, nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	logger.Info("Starting publish", "files", len(files), "bucket", bucket, "prefix", prefix, "concurrency", maxConcurrent)

	type outcome struct {
		skipped bool
		err     error
	}
	jobs := make(chan string, len(files))
	results := make(chan outcome, len(files))
	var wg sync.WaitGroup

	for i := range maxConcurrent {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for name := range jobs {
				logger.Debug("Worker publishing file", "worker", workerID, "file", name)
				skipped, err := p.publishFile(ctx, filepath.Join(dir, name), bucket, objectKey(prefix, name))
				if err != nil {
					logger.Error("Failed to publish file", "file", name, "error", err)
					err = fmt.Errorf("file %s: %w", name, err)
				}
				results <- outcome{skipped: skipped, err: err}
			}
		}(i)
	}

	for _, name := range files {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
	close(results)

	var result PublishResult
	var errs []error
	for o := range results {
		switch {
		case o.err != nil:
			result.Failed++
			errs = append(errs, o.err)
		case o.skipped:
			result.Skipped++
		default:
			result.Uploaded++
		}
	}

	if len(errs) > 0 {
		logger.Error("Publish completed with errors", "uploaded", result.Uploaded, "skipped", result.Skipped, "failed", result.Failed)
		return result, fmt.Errorf("publish failed for %d files: %w", len(errs), errors.Join(errs...))
	}
	logger.Info("Publish completed successfully", "uploaded", result.Uploaded, "skipped", result.Skipped)
	return result, nil
}

// publishFile uploads one file unless the remote object already has the same content.
func (p *s3Publisher) publishFile(ctx context.Context, filePath, bucket, key string) (bool, error) {
	localHash, err := calculateMD5(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to calculate MD5: %w", err)
	}

	head, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		if extractETag(head.ETag) == localHash {
			logger.Debug("Object already up to date, skipping", "key", key, "hash", localHash)
			return true, nil
		}
	} else if !isNotFoundError(err) {
		return false, fmt.Errorf("failed to check S3 object existence: %w", err)
	}

	format, err := ParseFormat(filepath.Ext(filePath))
	if err != nil {
		return false, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String(format.ContentType()),
		CacheControl: aws.String(derivativeCacheControl),
	})
	if err != nil {
		return false, fmt.Errorf("failed to upload to S3: %w", err)
	}
	logger.Info("Published derivative", "key", key, "hash", localHash)
	return false, nil
}

func objectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// calculateMD5 calculates the MD5 hash of a file
func calculateMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// extractETag strips the quotes S3 puts around ETags.
func extractETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}

// isNotFoundError checks if the error is a NotFound error
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "NotFound" || code == "NoSuchKey" {
			return true
		}
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "StatusCode: 404")
}
