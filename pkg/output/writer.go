package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/callgraph"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/config"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

// ErrWrite wraps every failure to produce a report artifact
var ErrWrite = errors.New("failed to write report")

// GraphFilename is the base name of the call graph artifact
const GraphFilename = "callgraph"

// Writer emits the call graph and caller reports into one directory
type Writer struct {
	dir      string
	format   string
	withArgs bool
	logger   *slog.Logger
}

// NewWriter creates a writer for the given output directory and format.
// DOT has no caller report form, so caller reports fall back to text.
func NewWriter(dir, format string, withoutArgs bool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if format == "" {
		format = config.FormatText
	}
	return &Writer{dir: dir, format: format, withArgs: !withoutArgs, logger: logger}
}

func extension(format string) string {
	switch format {
	case config.FormatJSON:
		return "json"
	case config.FormatDOT:
		return "dot"
	default:
		return "txt"
	}
}

// GraphPath returns where WriteGraph puts the call graph
func (w *Writer) GraphPath() string {
	return filepath.Join(w.dir, GraphFilename+"."+extension(w.format))
}

// CallersPath returns where the report for a query goes
func (w *Writer) CallersPath(q callgraph.Query) string {
	format := w.format
	if format == config.FormatDOT {
		format = config.FormatText
	}
	return filepath.Join(w.dir, utils.CallerReportFilename(q.Text, extension(format)))
}

// WriteGraph writes the call graph artifact
func (w *Writer) WriteGraph(g *callgraph.Graph) (string, error) {
	path := w.GraphPath()
	err := w.create(path, func(out io.Writer) error {
		switch w.format {
		case config.FormatJSON:
			return WriteGraphJSON(out, g, w.withArgs)
		case config.FormatDOT:
			return WriteGraphDOT(out, g, w.withArgs, GraphFilename)
		default:
			return WriteGraphText(out, g, w.withArgs)
		}
	})
	return path, err
}

// WriteCallers writes the report of one query
func (w *Writer) WriteCallers(g *callgraph.Graph, res *callgraph.Result) (string, error) {
	path := w.CallersPath(res.Query)
	err := w.create(path, func(out io.Writer) error {
		if w.format == config.FormatJSON {
			return WriteCallersJSON(out, g, res, w.withArgs)
		}
		return WriteCallersText(out, g, res, w.withArgs)
	})
	return path, err
}

// WriteAll writes one report per query followed by the graph itself. A failing
// artifact does not stop the others; all failures are returned together.
func (w *Writer) WriteAll(g *callgraph.Graph, results []*callgraph.Result) ([]string, error) {
	var written []string
	var errs []error

	record := func(path string, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		w.logger.Info("Wrote report", "path", path)
		written = append(written, path)
	}

	for _, res := range results {
		if !res.Found() {
			w.logger.Warn("No function found matching", "query", res.Query.Text)
		} else if res.Ambiguous() {
			w.logger.Info("Query matched several functions", "query", res.Query.Text, "matches", len(res.Targets))
		}
		record(w.WriteCallers(g, res))
	}
	record(w.WriteGraph(g))
	return written, errors.Join(errs...)
}

func (w *Writer) create(path string, write func(io.Writer) error) (err error) {
	file, err := utils.SafeCreateFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w %s: %w", ErrWrite, path, cerr)
		}
	}()
	if err := write(file); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	return nil
}
