package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AudioArchive keeps a best-effort copy of uploaded gratitude clips in
// S3. The analysis path never depends on it.
type AudioArchive struct {
	s3Client *s3.Client
	bucket   string
}

// NewAudioArchive creates a new audio archive
func NewAudioArchive(region, bucket, accessKey, secretKey, endpoint string) (*AudioArchive, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &AudioArchive{
		s3Client: s3Client,
		bucket:   bucket,
	}, nil
}

// Store decodes the base64 clip and uploads it keyed by pair and a
// fresh id. Failures are logged; archiving never affects the result.
func (a *AudioArchive) Store(ctx context.Context, pairID, audioBase64 string) {
	data, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		log.Warn().Err(err).Str("pair_id", pairID).Msg("Skipping archive of undecodable audio")
		return
	}

	key := fmt.Sprintf("%s/%s.wav", pairID, uuid.New().String())
	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to archive audio clip")
		return
	}

	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Audio clip archived")
}
