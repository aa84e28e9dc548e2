package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/config"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, cfg config.Config, opts cli.BuildOptions) *cli.Resources {
	t.Helper()
	res, err := cli.Build(context.Background(), &cfg, logging.NewNop(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	return res
}

func TestBuild_Defaults(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, cli.BuildOptions{})
	def, err := cli.LoadDefinition("", &cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	result, err := cli.RunOnce(context.Background(), res, def, cli.RunOptions{
		Bucket:  cfg.Bucket,
		Key:     cfg.SourceObjectKey,
		Profile: termenv.Ascii,
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, result.Status, "demo detector labels objects with the match literal")
	assert.Equal(t, 0, cli.ExitCode(result))
	assert.Contains(t, out.String(), "Succeeded")
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestBuild_DemoLabels(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, cli.BuildOptions{DemoLabels: []string{"Salad", "Pizza"}})
	def, err := cli.LoadDefinition("", &cfg)
	require.NoError(t, err)

	result, err := cli.RunOnce(context.Background(), res, def, cli.RunOptions{Bucket: "b", Key: "k.jpeg", JSON: true}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, "Salad", result.Context["food"])
	assert.Equal(t, 1, cli.ExitCode(result))
}

func TestBuild_RedisWithMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	cfg.Store.EncryptionKey = strings.Repeat("0f", 32)
	cfg.Store.MaskFields = []string{"^Key$"}
	res := build(t, cfg, cli.BuildOptions{})
	def, err := cli.LoadDefinition("", &cfg)
	require.NoError(t, err)

	result, err := cli.RunOnce(context.Background(), res, def, cli.RunOptions{Bucket: "b", Key: "secret.jpeg"}, &bytes.Buffer{})
	require.NoError(t, err)

	loaded, err := res.Engine.Result(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Context["Key"])
	assert.Equal(t, "Pizza", loaded.Context["food"])

	raw, err := mr.Get("stepflow:execution:" + result.ID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "Pizza", "stored value is encrypted")
}

func TestBuild_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Redis.Addr = addr
	_, err := cli.Build(context.Background(), &cfg, logging.NewNop(), cli.BuildOptions{})

	assert.Error(t, err)
}

func TestBuild_ProcessDetector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
detectors:
  - name: default
    command: sh
    args: ["-c", "echo '{\"Labels\":[{\"Name\":\"Pizza\",\"Confidence\":91}]}'"]
`), 0o644))

	cfg := config.Default()
	cfg.Detector.Config = path
	res := build(t, cfg, cli.BuildOptions{})
	def, err := cli.LoadDefinition("", &cfg)
	require.NoError(t, err)

	result, err := cli.RunOnce(context.Background(), res, def, cli.RunOptions{Bucket: "b", Key: "k.jpeg"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, result.Status)
}

func TestBuild_UnknownProcessDetector(t *testing.T) {
	cfg := config.Default()
	cfg.Detector.Config = filepath.Join(t.TempDir(), "absent.yaml")
	cfg.Detector.Name = "rekognition"

	_, err := cli.Build(context.Background(), &cfg, logging.NewNop(), cli.BuildOptions{})

	assert.ErrorContains(t, err, "rekognition")
}

func TestRunOnce_UploadsImage(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, cli.BuildOptions{})
	def, err := cli.LoadDefinition("", &cfg)
	require.NoError(t, err)

	image := filepath.Join(t.TempDir(), "lunch.jpeg")
	require.NoError(t, os.WriteFile(image, []byte("jpeg bytes"), 0o644))

	var out bytes.Buffer
	result, err := cli.RunOnce(context.Background(), res, def, cli.RunOptions{ImagePath: image, JSON: true}, &out)
	require.NoError(t, err)

	assert.Equal(t, "lunch.jpeg", result.Context["Key"])
	assert.Equal(t, cfg.Bucket, result.Context["Bucket"])

	obj, err := res.Objects.(*memory.ObjectStore).Get("lunch.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.ContentType)

	var decoded domain.ExecutionResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, result.ID, decoded.ID)
}

func TestRunOnce_MissingImage(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, cli.BuildOptions{})
	def, err := cli.LoadDefinition("", &cfg)
	require.NoError(t, err)

	_, err = cli.RunOnce(context.Background(), res, def, cli.RunOptions{ImagePath: "/does/not/exist.jpeg"}, &bytes.Buffer{})

	assert.ErrorContains(t, err, "open image")
}

func TestLoadDefinition_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Tiny
start_at: done
states:
  done:
    type: terminal
    outcome: succeeded
`), 0o644))
	cfg := config.Default()

	def, err := cli.LoadDefinition(path, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "Tiny", def.Name)

	_, err = cli.LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	assert.Error(t, err)
}

func TestRenderer(t *testing.T) {
	line := cli.Renderer(termenv.Ascii)(domain.ExecutionResult{Status: domain.StatusTimedOut, Workflow: "qc"})
	assert.True(t, strings.HasPrefix(line, "TimedOut  qc"))
}
