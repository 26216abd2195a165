package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/bcreader/buffer"
	"github.com/wippyai/bcreader/dump"
	bcerrors "github.com/wippyai/bcreader/errors"
	"github.com/wippyai/bcreader/internal/config"
	"github.com/wippyai/bcreader/ir"
	"github.com/wippyai/bcreader/parser"
)

type fileResult struct {
	module *ir.Module
	err    error
	path   string
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	interactive, _ := cmd.Flags().GetBool("interactive")

	log, err := newLogger(cfg, quiet)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	installLogger(log)

	if interactive {
		if len(args) != 1 {
			return fmt.Errorf("interactive mode takes exactly one file, got %d", len(args))
		}
		return runInteractive(args[0], log)
	}

	results := parseFiles(cmd, args, cfg.Parse.Jobs, log)

	stdout := cmd.OutOrStdout()
	out := bufio.NewWriter(stdout)
	opts := dump.Options{
		Color:    colorEnabled(cfg.Output.Color, stdout),
		MaxWidth: outputWidth(cfg.Output.Width, stdout),
	}

	failed := 0
	for i, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.path, r.err)
			continue
		}
		if err := writeModule(out, cfg.Output.Format, r, opts, i > 0); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse (%s)", failed, len(results), failureSummary(results))
	}
	return nil
}

// failureSummary counts failed results by error kind, e.g. "data_error: 2, eof: 1".
func failureSummary(results []fileResult) string {
	counts := make(map[string]int)
	for _, r := range results {
		if r.err == nil {
			continue
		}
		kind := string(bcerrors.KindOf(r.err))
		if kind == "" {
			kind = "other"
		}
		counts[kind]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

// parseFiles decodes every path concurrently. Results keep argument order.
func parseFiles(cmd *cobra.Command, paths []string, jobs int, log *zap.Logger) []fileResult {
	results := make([]fileResult, len(paths))
	ctx := cmd.Context()
	shared := ir.NewContext()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = fileResult{path: path, err: gctx.Err()}
				return nil
			default:
			}

			buf, err := buffer.Load(path)
			if err != nil {
				results[i] = fileResult{path: path, err: err}
				return nil
			}
			s := parser.NewSession(buf,
				parser.WithLogger(log.Named("parser").With(zap.String("file", path))),
				parser.WithTypeContext(shared),
			)
			m, err := s.Parse()
			results[i] = fileResult{path: path, module: m, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func writeModule(w io.Writer, format string, r fileResult, opts dump.Options, separate bool) error {
	switch format {
	case config.FormatMsgpack:
		return dump.WriteMsgpack(w, r.path, r.module)
	default:
		if separate {
			fmt.Fprintln(w)
		}
		return dump.Text(w, r.path, r.module, opts)
	}
}
