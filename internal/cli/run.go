package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/presentation/tui"
	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/muesli/termenv"
)

// RunOptions describe a single execution requested from the command line.
type RunOptions struct {
	// ImagePath, when set, is uploaded before the run and its locator used as input.
	ImagePath string
	// Key overrides the object key of the upload or of the configured source object.
	Key      string
	Bucket   string
	Deadline time.Duration
	JSON     bool
	Profile  termenv.Profile
}

// RunOnce uploads the optional image, executes def once and writes the result to out.
func RunOnce(ctx context.Context, res *Resources, def *domain.Definition, opts RunOptions, out io.Writer) (domain.ExecutionResult, error) {
	input := map[string]any{
		capability.ParamBucket: opts.Bucket,
		capability.ParamKey:    opts.Key,
	}

	if opts.ImagePath != "" {
		loc, err := uploadImage(ctx, res, opts)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		input[capability.ParamBucket] = loc.Bucket
		input[capability.ParamKey] = loc.Key
	}

	result := res.Engine.Execute(ctx, def, input, opts.Deadline)
	if err := WriteResult(out, result, opts.JSON, opts.Profile); err != nil {
		return result, err
	}
	return result, nil
}

func uploadImage(ctx context.Context, res *Resources, opts RunOptions) (domain.Locator, error) {
	f, err := os.Open(opts.ImagePath)
	if err != nil {
		return domain.Locator{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	key := opts.Key
	if key == "" {
		key = filepath.Base(opts.ImagePath)
	}
	contentType := mime.TypeByExtension(filepath.Ext(opts.ImagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return res.Engine.Upload(ctx, res.Objects, key, f, contentType)
}

// WriteResult prints result as indented JSON or as a colored status line.
func WriteResult(out io.Writer, result domain.ExecutionResult, asJSON bool, profile termenv.Profile) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprint(out, tui.FormatResult(profile, result))
	return err
}

// ExitCode maps a result to the process exit status.
func ExitCode(result domain.ExecutionResult) int {
	if result.OK() {
		return 0
	}
	return 1
}

// Renderer returns a stepflow.ResultRenderer drawing status lines with profile.
func Renderer(profile termenv.Profile) stepflow.ResultRenderer {
	return func(result domain.ExecutionResult) string {
		return tui.FormatResult(profile, result)
	}
}
