package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/history"
	"github.com/starford/formfill/internal/mcpserver"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
	"github.com/starford/formfill/internal/parser"
	"github.com/starford/formfill/internal/questions"
	"github.com/starford/formfill/internal/report"
	"github.com/starford/formfill/internal/watch"
)

// FillParams are the arguments of the fill command.
type FillParams struct {
	DocID     string
	Questions string
	Mode      outline.Mode
	DryRun    bool
	JSON      bool
	Report    string
	NoSave    bool
	Watch     bool
}

// Fill writes the answers of a question file into a document, saves the
// results file and prints a summary. With Watch set it keeps running and
// fills again whenever the question file or the vault document changes.
func (a *App) Fill(ctx context.Context, p FillParams) error {
	err := a.fillOnce(ctx, p)
	if !p.Watch {
		return err
	}
	if err != nil {
		a.log.Error("fill failed", slog.String("error", err.Error()))
	}

	if err := a.open(); err != nil {
		return err
	}
	paths := []string{p.Questions}
	if parser.IsSupportedExtension(p.DocID) {
		paths = append(paths, p.DocID)
	} else if a.cfg.Docs.Backend == BackendVault {
		docPath, err := a.vault.PathOf(p.DocID)
		if err != nil {
			return err
		}
		paths = append(paths, docPath)
	}
	w, err := watch.New(paths, watch.DefaultDebounce, a.log)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(ctx context.Context, _ []string) {
		if err := a.fillOnce(ctx, p); err != nil {
			a.log.Error("fill failed", slog.String("error", err.Error()))
		}
	})
}

func (a *App) fillOnce(ctx context.Context, p FillParams) error {
	// Input errors stop the run before the document is read.
	qs, err := questions.Load(p.Questions)
	if err != nil {
		return err
	}
	svc, err := a.service()
	if err != nil {
		return err
	}

	b, runErr := svc.Fill(ctx, p.DocID, qs, filler.Options{Mode: p.Mode, DryRun: p.DryRun})
	if b == nil || b.Mode == "" {
		return runErr
	}

	resultsPath := ""
	if !p.NoSave {
		if resultsPath, err = svc.WriteResults(a.cfg.Fill.ResultsDir, b); err != nil {
			a.log.Error("save results failed", slog.String("error", err.Error()))
		} else {
			a.log.Info("results saved", slog.String("path", resultsPath))
		}
	}

	if p.JSON {
		if err := a.printJSON(b); err != nil {
			return err
		}
	} else {
		report.Summary(a.out, b, a.log)
	}

	if p.Report != "" {
		var buf bytes.Buffer
		if err := report.Markdown(&buf, b, report.Options{JSONFile: resultsPath}); err != nil {
			return err
		}
		if err := os.WriteFile(p.Report, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		a.log.Info("report saved", slog.String("path", p.Report))
	}

	if runErr != nil {
		return runErr
	}
	if b.HasErrors() {
		return ErrRunHasErrors
	}
	return nil
}

// Analyze prints, for each entry of the question file, whether its
// outline ID exists in the document and whether the question text
// matches. A one-line summary goes to stderr.
func (a *App) Analyze(ctx context.Context, docID, questionsPath string, mode outline.Mode) error {
	qs, err := questions.Load(questionsPath)
	if err != nil {
		return err
	}
	svc, err := a.service()
	if err != nil {
		return err
	}
	results, sum, err := svc.Analyze(ctx, docID, qs, mode)
	if err != nil {
		return err
	}
	if err := a.printJSON(results); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.errOut, "Found: %d/%d, matched: %d, mismatched: %d\n", sum.Found, sum.Total, sum.Matched, sum.Mismatched)
	return err
}

// Dump prints the annotated paragraphs of a document.
func (a *App) Dump(ctx context.Context, docID string, mode outline.Mode, outlineOnly bool) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	paras, used, err := svc.Structure(ctx, docID, mode, outlineOnly)
	if err != nil {
		return err
	}
	a.log.Debug("structure", slog.String("doc_id", docID), slog.String("mode", string(used)), slog.Int("paragraphs", len(paras)))
	return a.printJSON(paras)
}

// ReportParams are the arguments of the report command.
type ReportParams struct {
	Results string
	Output  string
	HTML    bool
	DocID   string
}

// Report renders a results file as Markdown or HTML.
func (a *App) Report(p ReportParams) error {
	data, err := os.ReadFile(p.Results)
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}
	var b models.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("decode results %s: %w", p.Results, err)
	}

	opts := report.Options{DocID: p.DocID, JSONFile: p.Results}
	var buf bytes.Buffer
	if p.HTML {
		err = report.HTML(&buf, &b, opts)
	} else {
		err = report.Markdown(&buf, &b, opts)
	}
	if err != nil {
		return err
	}
	return a.writeOutput(p.Output, buf.Bytes())
}

// Convert turns a CSV export into a nested question file.
func (a *App) Convert(csvPath, output string, compact bool) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	nested, err := questions.ConvertCSV(f)
	if err != nil {
		return err
	}
	var data []byte
	if compact {
		data, err = json.Marshal(nested)
	} else {
		data, err = json.MarshalIndent(nested, "", "  ")
	}
	if err != nil {
		return err
	}
	if err := a.writeOutput(output, append(data, '\n')); err != nil {
		return err
	}
	a.log.Info("converted", slog.String("csv", csvPath), slog.Int("questions", len(questions.Flatten(nested.Questions))))
	return nil
}

// Import parses a local form file into the vault.
func (a *App) Import(ctx context.Context, path, id string, overwrite bool) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	meta, err := svc.Import(ctx, path, id, overwrite)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "imported %s as %s (%q)\n", path, meta.ID, meta.Title)
	return err
}

// History lists stored runs, newest first. With sync set, results files
// in the results directory are imported first.
func (a *App) History(ctx context.Context, limit int, docID string, sync bool) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	if sync {
		n, err := history.Sync(a.db, a.cfg.Fill.ResultsDir, a.log)
		if err != nil {
			return err
		}
		a.log.Info("imported results files", slog.Int("count", n))
	}

	runs, total, err := svc.Runs(ctx, limit, 0, docID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tDOCUMENT\tMODE\tDRY RUN\tERRORS\tCREATED\tCOUNTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\t%s\n",
			r.RunID, r.DocID, r.Mode, r.DryRun, r.HasErrors, r.CreatedAt.Local().Format("2006-01-02 15:04"), counts(r.Counts))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "%d of %d runs\n", len(runs), total)
	return err
}

func counts(c map[models.Status]int) string {
	parts := make([]string, 0, len(c))
	for s, n := range c {
		parts = append(parts, fmt.Sprintf("%s=%d", s, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.log.Info("written", slog.String("path", path))
	return nil
}

// MCP serves the form tools over stdio until stdin closes.
func (a *App) MCP(_ context.Context) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	a.log.Info("starting MCP server", slog.String("transport", "stdio"), slog.String("version", a.version))
	return mcpserver.New(svc, a.version).ServeStdio()
}
