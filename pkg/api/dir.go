package api

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/runstack/obfuscator/internal/logging"
	"github.com/runstack/obfuscator/internal/obfuscator"
)

// DirSummary describes one directory run.
type DirSummary struct {
	Processed   int   // PHP files obfuscated
	Copied      int   // other files and symlinks copied as is
	Skipped     int   // entries matching a skip pattern
	InputBytes  int64 // size of the obfuscated inputs
	OutputBytes int64 // size of the obfuscated outputs

	// Failures collects per-file errors when abort_on_error is off.
	Failures *multierror.Error
	Mappings *MappingFile

	mu sync.Mutex
}

// String renders a one-line report.
func (s *DirSummary) String() string {
	failed := 0
	if s.Failures != nil {
		failed = len(s.Failures.Errors)
	}
	return fmt.Sprintf("%d processed (%s -> %s), %d copied, %d skipped, %d failed",
		s.Processed, humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)),
		s.Copied, s.Skipped, failed)
}

func (s *DirSummary) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failures = multierror.Append(s.Failures, err)
}

// ObfuscateDirectory obfuscates all PHP files in a directory and writes the results to another directory.
//
// The function will:
// 1. Create the output directory if it doesn't exist
// 2. Process all PHP files recursively, preserving directory structure
// 3. Copy non-PHP files (and recreate symlinks) in the output directory
// 4. Skip entries that match patterns in the configuration's skip list
//
// Files are processed by up to cfg.Workers goroutines. With abort_on_error
// the first failure cancels the run and is returned; otherwise failures are
// collected in the summary.
func (o *Obfuscator) ObfuscateDirectory(inputDir, outputDir string) (*DirSummary, error) {
	return o.ObfuscateDirectoryContext(context.Background(), inputDir, outputDir)
}

// ObfuscateDirectoryContext is ObfuscateDirectory with cancellation.
func (o *Obfuscator) ObfuscateDirectoryContext(ctx context.Context, inputDir, outputDir string) (*DirSummary, error) {
	inputInfo, err := os.Stat(inputDir)
	if err != nil {
		return nil, &IOError{Op: "read", Path: inputDir, Err: err}
	}
	if !inputInfo.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: outputDir, Err: err}
	}

	summary := &DirSummary{Mappings: NewMappingFile(o.Config.Level)}
	g, ctx := errgroup.WithContext(ctx)
	workers := o.Config.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	walkErr := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return o.handle(summary, fmt.Errorf("error accessing path %q: %w", path, err))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return o.handle(summary, err)
		}
		if relPath == "." {
			return nil
		}

		skip, err := shouldSkipPath(relPath, d.IsDir(), o.Config.SkipPaths)
		if err != nil {
			return o.handle(summary, err)
		}
		if skip {
			summary.mu.Lock()
			summary.Skipped++
			summary.mu.Unlock()
			logging.V(logging.LevelPipeline).Infof("skipping %s", relPath)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(outputDir, relPath)
		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return o.handle(summary, &IOError{Op: "mkdir", Path: target, Err: err})
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			return o.handle(summary, copySymlink(path, target, summary))
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			if o.isPhpFile(path) {
				err = o.processFile(path, target, relPath, summary)
			} else {
				err = copyFile(path, target, summary)
			}
			return o.handle(summary, err)
		})
		return nil
	})

	// a worker failure cancels ctx, so the walk error is secondary
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if walkErr != nil {
		return summary, walkErr
	}
	if !o.Config.Silent {
		PrintInfo("Directory %s: %s\n", inputDir, summary)
	}
	return summary, nil
}

// handle applies abort_on_error: the error is either returned (aborting) or
// recorded and swallowed.
func (o *Obfuscator) handle(summary *DirSummary, err error) error {
	if err == nil {
		return nil
	}
	if o.Config.AbortOnError {
		return err
	}
	logging.Warningf("%v", err)
	summary.fail(err)
	return nil
}

func (o *Obfuscator) processFile(path, target, relPath string, summary *DirSummary) error {
	res, err := o.Engine.ProcessFile(path)
	if err != nil {
		return err
	}
	if err := obfuscator.WriteOutput(target, res.Output); err != nil {
		return err
	}
	info, statErr := os.Stat(path)

	summary.mu.Lock()
	summary.Processed++
	if statErr == nil {
		summary.InputBytes += info.Size()
	}
	summary.OutputBytes += int64(len(res.Output))
	summary.mu.Unlock()
	summary.Mappings.Add(relPath, res.Mappings)

	if !o.Config.Silent {
		PrintInfo("Processed: %s -> %s\n", path, target)
	}
	return nil
}

// isPhpFile checks the extension against obfuscate_php_extensions.
func (o *Obfuscator) isPhpFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range o.Config.ObfuscatePhpExtensions {
		if strings.EqualFold(strings.TrimPrefix(allowed, "."), ext) {
			return true
		}
	}
	return false
}

// shouldSkipPath matches relPath against the skip patterns. Patterns
// without a separator also match the base name at any depth. A directory
// matching "dir/*" is skipped as a whole.
func shouldSkipPath(relPath string, isDir bool, patterns []string) (bool, error) {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		candidates := []string{normalized}
		if isDir {
			candidates = append(candidates, normalized+"/")
		}
		if !strings.Contains(pattern, "/") {
			candidates = append(candidates, base)
		}
		for _, c := range candidates {
			matched, err := filepath.Match(pattern, c)
			if err != nil {
				return false, fmt.Errorf("invalid skip pattern '%s': %w", pattern, err)
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

func copyFile(src, dst string, summary *DirSummary) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return &IOError{Op: "read", Path: src, Err: err}
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return &IOError{Op: "read", Path: src, Err: err}
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	destination, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, sourceFileStat.Mode())
	if err != nil {
		return &IOError{Op: "write", Path: dst, Err: err}
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return &IOError{Op: "write", Path: dst, Err: err}
	}

	summary.mu.Lock()
	summary.Copied++
	summary.mu.Unlock()
	return nil
}

// copySymlink recreates a symlink in the output tree without following it.
func copySymlink(src, dst string, summary *DirSummary) error {
	linkTarget, err := os.Readlink(src)
	if err != nil {
		return &IOError{Op: "read", Path: src, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return &IOError{Op: "write", Path: dst, Err: err}
		}
	}
	if err := os.Symlink(linkTarget, dst); err != nil {
		return &IOError{Op: "write", Path: dst, Err: err}
	}

	summary.mu.Lock()
	summary.Copied++
	summary.mu.Unlock()
	return nil
}
