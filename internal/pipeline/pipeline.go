// Package pipeline runs the data preparation end to end: boundary layer and workbook
// in, merged shapefile set and category report out.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/solar-suitability/internal/acronym"
	"github.com/sells-group/solar-suitability/internal/boundary"
	"github.com/sells-group/solar-suitability/internal/config"
	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/ledger"
	"github.com/sells-group/solar-suitability/internal/master"
	"github.com/sells-group/solar-suitability/internal/merge"
	"github.com/sells-group/solar-suitability/internal/output"
	"github.com/sells-group/solar-suitability/internal/report"
	"github.com/sells-group/solar-suitability/internal/workbook"
)

// Ledger records runs. *ledger.Store satisfies it.
type Ledger interface {
	StartRun(ctx context.Context, key string, inputs []ledger.Fingerprint, output string) (*ledger.Run, error)
	FinishRun(ctx context.Context, id string, features, matched int) error
	FailRun(ctx context.Context, id string, runErr error) error
	LastSuccess(ctx context.Context, key string) (*ledger.Run, error)
}

// Options control a single run.
type Options struct {
	Force  bool      // run even when the ledger has a matching success
	Report io.Writer // destination of the printed report; nil discards it
}

// PhaseStatus is the outcome of one phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult records one phase of a run.
type PhaseResult struct {
	Name     string
	Status   PhaseStatus
	Duration time.Duration
	Error    string
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Skipped  bool // inputs unchanged since a successful run whose output still exists
	Features int
	Matched  int
	Files    []string
	Coverage *etlerr.CoverageWarning
	Summary  report.Summary
	Phases   []PhaseResult
}

// Pipeline wires configuration and the optional run ledger.
type Pipeline struct {
	cfg  *config.Config
	runs Ledger
}

// New creates a Pipeline. runs may be nil to disable the ledger.
func New(cfg *config.Config, runs Ledger) *Pipeline {
	return &Pipeline{cfg: cfg, runs: runs}
}

// Run executes every phase in order and stops at the first fatal error. Output files
// exist only when Run returns without error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := p.cfg
	log := zap.L().With(zap.String("component", "pipeline"))
	log.Info("pipeline: starting data preparation",
		zap.String("boundary", cfg.Input.Boundary),
		zap.String("workbook", cfg.Input.Workbook),
		zap.String("output", cfg.Output.Path),
	)

	result := &Result{}

	run, prev, err := p.startRun(ctx, opts.Force)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		log.Info("pipeline: inputs unchanged since last successful run, skipping",
			zap.String("run_id", prev.ID),
			zap.Timep("finished_at", prev.FinishedAt),
		)
		result.RunID = prev.ID
		result.Skipped = true
		result.Features = prev.Features
		result.Matched = prev.Matched
		return result, nil
	}
	if run != nil {
		result.RunID = run.ID
	}

	fail := func(err error) (*Result, error) {
		if run != nil {
			if ledgerErr := p.runs.FailRun(ctx, run.ID, err); ledgerErr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(ledgerErr))
			}
		}
		return result, err
	}

	trackPhase := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "pipeline: %s", name)
		}
		start := time.Now()
		fnErr := fn()
		pr := PhaseResult{Name: name, Duration: time.Since(start)}
		if fnErr != nil {
			pr.Status = PhaseStatusFailed
			pr.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration.Milliseconds()),
				zap.Error(fnErr),
			)
		} else {
			pr.Status = PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration.Milliseconds()),
			)
		}
		result.Phases = append(result.Phases, pr)
		return fnErr
	}

	// ===== Phase 1: boundary layer =====
	var layer *boundary.Layer
	if err := trackPhase("boundary", func() error {
		l, err := boundary.Load(cfg.Input.Boundary)
		if err != nil {
			return err
		}
		log.Info("loaded boundary layer",
			zap.Int("features", l.Len()),
			zap.Strings("columns", l.FieldNames()),
		)
		removed := l.KeepNameColumns()
		log.Info("removed placeholder columns",
			zap.Strings("removed", removed),
			zap.Strings("kept", l.FieldNames()),
		)
		layer = l
		return nil
	}); err != nil {
		return fail(err)
	}

	// ===== Phase 2: workbook =====
	var sheets *workbook.Sheets
	if err := trackPhase("workbook", func() error {
		wb, err := workbook.Open(cfg.Input.Workbook)
		if err != nil {
			return err
		}
		log.Info("opened workbook",
			zap.Strings("sheets", wb.SheetNames()),
			zap.Strings("required", cfg.Sheets.Names.List()),
		)
		s, err := wb.LoadAll(cfg.Sheets.Names)
		if err != nil {
			return err
		}
		for _, t := range []struct {
			name string
			rows int
		}{
			{cfg.Sheets.Names.Ranking, s.Ranking.Len()},
			{cfg.Sheets.Names.Recommendation, s.Recommendation.Len()},
			{cfg.Sheets.Names.Adaptation, s.Adaptation.Len()},
			{cfg.Sheets.Names.Mitigation, s.Mitigation.Len()},
			{cfg.Sheets.Names.Replacement, s.Replacement.Len()},
			{cfg.Sheets.Names.Community, s.Community.Len()},
			{cfg.Sheets.Names.Acronym, s.Acronym.Len()},
			{cfg.Sheets.Names.Potential, s.Potential.Len()},
			{cfg.Sheets.Names.All, s.All.Len()},
		} {
			log.Info("loaded sheet", zap.String("sheet", t.name), zap.Int("rows", t.rows))
		}
		sheets = s
		return nil
	}); err != nil {
		return fail(err)
	}

	// ===== Phase 3: acronyms and master records =====
	var set *master.Set
	if err := trackPhase("master", func() error {
		lookup, err := acronym.Build(sheets.Acronym, cfg.Sheets.AcronymSource, cfg.Sheets.AcronymShort)
		if err != nil {
			return err
		}
		log.Info("loaded acronym mappings", zap.Int("mappings", lookup.Len()))
		log.Debug("acronym labels", zap.Strings("labels", lookup.Labels()))

		s, err := master.Build(master.Inputs{
			Ranking:        sheets.Ranking,
			Recommendation: sheets.Recommendation,
			Community:      sheets.Community,
			Potential:      sheets.Potential,
			Namer: acronym.Namer{
				Lookup:   lookup,
				Limit:    cfg.Naming.FieldNameLimit,
				Truncate: cfg.Naming.Truncate,
				Keep:     []string{master.ColState, master.ColDistrict},
			},
		})
		if err != nil {
			return err
		}
		set = s
		return nil
	}); err != nil {
		return fail(err)
	}

	// ===== Phase 4: merge onto boundary features =====
	var merged *merge.Result
	if err := trackPhase("merge", func() error {
		m, err := merge.Merge(layer, set, merge.Options{
			MatchColumns:   cfg.Merge.MatchColumns,
			MinCoverage:    cfg.Merge.MinCoverage,
			FieldNameLimit: cfg.Naming.FieldNameLimit,
			StrictLevels:   cfg.Merge.StrictLevels,
		})
		if err != nil {
			return err
		}
		merged = m
		result.Features = len(m.Features)
		result.Matched = m.Matched
		result.Coverage = m.Coverage
		return nil
	}); err != nil {
		return fail(err)
	}

	// ===== Phase 5: fill and write =====
	if err := trackPhase("write", func() error {
		filled := output.Fill(merged)
		log.Info("filled missing values", zap.Int("cells", filled))
		for _, f := range merged.Fields {
			log.Debug("output field", zap.String("field", f.Name), zap.Int("length", len(f.Name)))
		}
		files, err := output.Write(merged, output.Options{
			Path:       cfg.Output.Path,
			Type:       layer.Type,
			Projection: layer.Projection,
			Encoding:   cfg.Output.Encoding,
			Source:     cfg.Input.Workbook,
		})
		if err != nil {
			return err
		}
		result.Files = files
		return nil
	}); err != nil {
		return fail(err)
	}

	// ===== Phase 6: report =====
	if err := trackPhase("report", func() error {
		result.Summary = report.Summarize(merged)
		w := opts.Report
		if w == nil {
			w = io.Discard
		}
		report.Print(w, result.Summary)
		if cfg.Output.ReportXLSX != "" {
			if err := report.WriteWorkbook(cfg.Output.ReportXLSX, result.Summary); err != nil {
				return etlerr.NewWriteError(cfg.Output.ReportXLSX, err)
			}
			log.Info("wrote report workbook", zap.String("path", cfg.Output.ReportXLSX))
		}
		return nil
	}); err != nil {
		return fail(err)
	}

	if run != nil {
		if err := p.runs.FinishRun(ctx, run.ID, result.Features, result.Matched); err != nil {
			log.Warn("pipeline: failed to record run completion", zap.Error(err))
		}
	}
	log.Info("pipeline: data preparation complete",
		zap.Int("features", result.Features),
		zap.Int("matched", result.Matched),
		zap.Strings("files", result.Files),
	)
	return result, nil
}

// startRun consults the ledger. It returns the previous successful run when the inputs
// are unchanged and its output still exists, otherwise the newly started run.
func (p *Pipeline) startRun(ctx context.Context, force bool) (*ledger.Run, *ledger.Run, error) {
	if p.runs == nil {
		return nil, nil, nil
	}
	fps, err := ledger.Stat(inputFiles(p.cfg.Input.Boundary, p.cfg.Input.Workbook)...)
	if err != nil {
		// Missing inputs are reported by the phase that reads them.
		zap.L().Debug("pipeline: cannot fingerprint inputs", zap.Error(err))
		fps = nil
	}
	key, err := SettingsKey(p.cfg, fps)
	if err != nil {
		return nil, nil, err
	}

	if !force && fps != nil {
		prev, err := p.runs.LastSuccess(ctx, key)
		if err != nil {
			return nil, nil, eris.Wrap(err, "pipeline: query ledger")
		}
		if prev != nil && outputExists(prev.Output) {
			return nil, prev, nil
		}
	}

	run, err := p.runs.StartRun(ctx, key, fps, p.cfg.Output.Path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: start run")
	}
	return run, nil, nil
}

// SettingsKey derives the ledger key from the input fingerprints and every setting
// that changes the output.
func SettingsKey(cfg *config.Config, fps []ledger.Fingerprint) (string, error) {
	settings, err := yaml.Marshal(struct {
		Output config.OutputConfig `yaml:"output"`
		Sheets config.SheetsConfig `yaml:"sheets"`
		Merge  config.MergeConfig  `yaml:"merge"`
		Naming config.NamingConfig `yaml:"naming"`
	}{cfg.Output, cfg.Sheets, cfg.Merge, cfg.Naming})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: encode settings")
	}
	return ledger.InputKey(string(settings), fps), nil
}

// inputFiles lists every file whose change invalidates a previous run: the boundary
// with its companions and the workbook. Optional companions count when present.
func inputFiles(shpPath, workbookPath string) []string {
	files := []string{shpPath, boundary.Sidecar(shpPath, ".shx"), boundary.Sidecar(shpPath, ".dbf")}
	for _, ext := range []string{".prj", ".cpg"} {
		if p := boundary.Sidecar(shpPath, ext); fileExists(p) {
			files = append(files, p)
		}
	}
	return append(files, workbookPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func outputExists(path string) bool {
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		if _, err := os.Stat(boundary.Sidecar(path, ext)); err != nil {
			return false
		}
	}
	return true
}
