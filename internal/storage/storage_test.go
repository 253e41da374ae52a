package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.body = body

	return &s3.PutObjectOutput{}, f.err
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://kosu.s3.amazonaws.com/geocomp.zip", PublicURL("kosu", "geocomp.zip"))
	require.Equal(t, "https://kosu.s3.amazonaws.com/data/", PublicURL("kosu", "/data/"))
}

func TestS3Uploader_Upload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "geocomp.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o600))

	fake := &fakePutObject{}
	u := &S3Uploader{client: fake}

	require.NoError(t, u.Upload(context.Background(), path, "kosu", ""))
	require.Equal(t, "kosu", aws.ToString(fake.input.Bucket))
	require.Equal(t, "geocomp.zip", aws.ToString(fake.input.Key))
	require.Equal(t, types.ObjectCannedACLPublicRead, fake.input.ACL)
	require.Equal(t, []byte("PK"), fake.body)
}

func TestS3Uploader_Errors(t *testing.T) {
	t.Parallel()

	u := &S3Uploader{client: &fakePutObject{err: errors.New("access denied")}}

	require.ErrorIs(t, u.Upload(context.Background(), "x.zip", "", "x.zip"), ErrNoBucket)
	require.ErrorIs(t, u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.zip"), "kosu", ""), os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "geocomp.zip")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	require.ErrorContains(t, u.Upload(context.Background(), path, "kosu", ""), "access denied")
}
