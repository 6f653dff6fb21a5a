package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3(endpoint string) *S3Service {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIDTEST", "SECRETTEST", ""),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})
	return NewS3Service(client)
}

func TestS3PutObject(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newTestS3(srv.URL)
	loc, err := svc.PutObject(context.Background(), "bucket", "/exports/a.json", strings.NewReader(`[]`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/exports/a.json", loc)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/bucket/exports/a.json", gotPath)
}

func TestS3PutObjectValidates(t *testing.T) {
	svc := newTestS3("http://127.0.0.1:1")
	_, err := svc.PutObject(context.Background(), "", "k", strings.NewReader(""), "")
	assert.Error(t, err)
	_, err = svc.PutObject(context.Background(), "bucket", "", strings.NewReader(""), "")
	assert.Error(t, err)
}

func TestS3ListObjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bucket", r.URL.Path)
		assert.Equal(t, "exports/", r.URL.Query().Get("prefix"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>bucket</Name><Prefix>exports/</Prefix><KeyCount>1</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>
<Contents><Key>exports/a.json</Key><Size>12</Size><LastModified>2025-01-01T00:00:00.000Z</LastModified></Contents>
</ListBucketResult>`))
	}))
	defer srv.Close()

	objects, err := newTestS3(srv.URL).ListObjects(context.Background(), "bucket", "exports/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "exports/a.json", objects[0].Key)
	assert.Equal(t, int64(12), objects[0].Size)
	require.NotNil(t, objects[0].LastModified)
	assert.Equal(t, 2025, objects[0].LastModified.Year())
}

func TestS3GetObjectURL(t *testing.T) {
	svc := newTestS3("http://localhost:9000")
	url, err := svc.GetObjectURL(context.Background(), "bucket", "exports/a.json", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/bucket/exports/a.json?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
}
