package publish

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		file   string
		want   string
	}{
		{name: "with prefix", prefix: "tables", file: "output/cfgItem_20240102.csv", want: "tables/cfgItem/run=r1/cfgItem_20240102.csv"},
		{name: "slashes trimmed", prefix: "/a/b/", file: "x.txt", want: "a/b/cfgItem/run=r1/x.txt"},
		{name: "no prefix", prefix: "", file: "/abs/out/x.parquet", want: "cfgItem/run=r1/x.parquet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.prefix, "cfgItem", "r1", tt.file))
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ContentType("a.CSV"))
	assert.Equal(t, "text/tab-separated-values; charset=utf-8", ContentType("a.txt"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Bucket: "b", AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = New(Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = New(Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.ErrorContains(t, err, "credentials are required")
}

func TestNewDoesNotConnect(t *testing.T) {
	p, err := New(Config{Endpoint: "http://localhost:9000", Bucket: "b", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	_, err = uuid.Parse(p.RunID())
	assert.NoError(t, err)
}
