package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrNotConfigured はアップロード先が設定されていないことを表す。
var ErrNotConfigured = errors.New("storage: アップロード先が設定されていません")

// Uploader はファイルをアップロードし、公開URLを返す。
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// objectPutter はS3クライアントのうちアップロードに必要な操作。
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config はS3互換ストレージの接続設定。
type S3Config struct {
	// Bucket はアップロード先のバケット名。
	Bucket string
	// Region はAWSリージョン。
	Region string
	// Endpoint はMinIO等のS3互換エンドポイント。指定時はパス形式でアクセスする。
	Endpoint string
	// PublicURL はオブジェクトの公開URLの接頭辞。空の場合はバケットURLを使用する。
	PublicURL string
}

// S3Uploader はS3互換バケットにファイルをアップロードする。
type S3Uploader struct {
	client    objectPutter
	bucket    string
	publicURL string
}

// NewS3Uploader はS3Uploaderを生成する。Endpointが指定された場合は
// パス形式のアドレッシングを有効にする。
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Uploader(s3.NewFromConfig(awsCfg, opts...), cfg), nil
}

func newS3Uploader(client objectPutter, cfg S3Config) *S3Uploader {
	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		switch {
		case cfg.Endpoint != "":
			publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		default:
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &S3Uploader{client: client, bucket: cfg.Bucket, publicURL: publicURL}
}

// Upload はファイルを "uploads/<uuid>/<ファイル名>" に保存し、公開URLを返す。
func (u *S3Uploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := ObjectKey(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3へのアップロードに失敗: %w", err)
	}
	return u.publicURL + "/" + escapeKey(key), nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey はアップロードするファイルのオブジェクトキーを生成する。
// ファイル名のうちパス区切りや英数字以外の文字は "_" に置き換える。
func ObjectKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	return "uploads/" + uuid.New().String() + "/" + base
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
