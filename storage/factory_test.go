package storage

import (
	"testing"
	"time"

	"github.com/anoixa/mozaiek/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOptions(t *testing.T) {
	var cfg WebDAVConfig
	err := decodeOptions(map[string]interface{}{
		"url":       "http://dav",
		"root_path": "/photos",
		"timeout":   "45s",
	}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://dav", cfg.URL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)

	var minioCfg MinioConfig
	require.NoError(t, decodeOptions(map[string]interface{}{"use_ssl": "true", "bucket": "photos"}, &minioCfg))
	assert.True(t, minioCfg.UseSSL)
}

func TestBuild(t *testing.T) {
	p, err := Build("local", map[string]interface{}{"path": t.TempDir(), "public_base_url": "http://x/photos"})
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())
	assert.Equal(t, "http://x/photos/memories/a.jpg", p.PublicURL("memories/a.jpg"))

	_, err = Build("ftp", nil)
	assert.Error(t, err)
}

func TestNewFactory_Local(t *testing.T) {
	cfg := &config.Config{
		ServerHost:       "0.0.0.0",
		ServerPort:       9000,
		StorageType:      "local",
		StorageLocalPath: t.TempDir(),
	}

	f, err := NewFactory(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, f.ListProviders())
	assert.Equal(t, "http://localhost:9000/photos/memories/a.jpg", f.GetDefault().PublicURL("memories/a.jpg"))

	_, err = f.Get("minio")
	assert.Error(t, err)
}

func TestMinioPublicBase(t *testing.T) {
	assert.Equal(t, "http://minio:9000/photos", minioPublicBase(MinioConfig{Endpoint: "minio:9000", BucketName: "photos"}))
	assert.Equal(t, "https://s3.local/photos", minioPublicBase(MinioConfig{Endpoint: "s3.local", BucketName: "photos", UseSSL: true}))
}
