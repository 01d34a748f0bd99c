// File: cmd/inputs.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/config"
)

// ErrInvalidToolSpec is returned for a --tool value that is not name=path.
var ErrInvalidToolSpec = errors.New("invalid tool spec, expected name=path")

// inputOptions are the flags shared by compare and ingest.
type inputOptions struct {
	manifest     string
	toolSpecs    []string
	root         string
	repositoryID string
}

// loadOutputs gathers tool outputs from the manifest and --tool flags, in
// that order, and drops tools the configuration does not allow.
func loadOutputs(opts inputOptions, cfg config.CompareConfig, logger *zap.Logger) ([]schemas.ToolOutput, error) {
	var outputs []schemas.ToolOutput

	if opts.manifest != "" {
		fromManifest, err := readManifest(opts.manifest)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, fromManifest...)
	}

	for _, spec := range opts.toolSpecs {
		out, err := readToolSpec(spec)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	if len(outputs) == 0 {
		return nil, fmt.Errorf("no tool outputs given, use --manifest or --tool")
	}

	allowed := outputs[:0]
	for _, out := range outputs {
		if !cfg.ToolAllowed(out.Tool) {
			logger.Warn("Ignoring tool output not enabled in configuration", zap.String("tool", out.Tool))
			continue
		}
		allowed = append(allowed, out)
	}
	return allowed, nil
}

// readManifest decodes a JSON array of tool output records.
func readManifest(path string) ([]schemas.ToolOutput, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var outputs []schemas.ToolOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	for i, out := range outputs {
		if strings.TrimSpace(out.Tool) == "" {
			return nil, fmt.Errorf("manifest %s: record %d has no tool name", path, i)
		}
	}
	return outputs, nil
}

// readToolSpec turns "name=path" into a successful tool output whose payload
// is the file content.
func readToolSpec(spec string) (schemas.ToolOutput, error) {
	name, path, ok := strings.Cut(spec, "=")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return schemas.ToolOutput{}, fmt.Errorf("%w: %q", ErrInvalidToolSpec, spec)
	}
	data, err := readFile(path)
	if err != nil {
		return schemas.ToolOutput{}, fmt.Errorf("failed to read %s output: %w", name, err)
	}
	return schemas.ToolOutput{Tool: name, Success: true, Payload: data}, nil
}

func readFile(path string) ([]byte, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(expanded)
}

// resolveRoot picks the rebasing root: the flag, then the configured default,
// then the working directory. The result is absolute so tool paths can be
// rebased against it.
func resolveRoot(flagRoot string, cfg config.CompareConfig) (string, error) {
	root := flagRoot
	if root == "" {
		root = cfg.RepositoryRoot
	}
	if root == "" {
		root = "."
	}
	expanded, err := homedir.Expand(root)
	if err != nil {
		return "", fmt.Errorf("failed to expand root %s: %w", root, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	return filepath.ToSlash(abs), nil
}
