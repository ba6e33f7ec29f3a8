// Package pipeline wires every processor component into the two-pass
// control flow of spec §2: stream -> entry parser -> item store (pass 1),
// then stream -> etymology/descendants builders -> graph core (pass 2),
// finished by the serializer.
//
// Grounded on the reference codebase's Conductor (pkg/scanner/conductor/
// conductor.go): named sub-component fields built once in a constructor,
// driven by a single method that runs every stage in sequence and returns
// one result value.
package pipeline

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grimmgraph/grimm/internal/config"
	"github.com/grimmgraph/grimm/internal/descendants"
	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/embedding"
	"github.com/grimmgraph/grimm/internal/entry"
	"github.com/grimmgraph/grimm/internal/etymology"
	"github.com/grimmgraph/grimm/internal/graph"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/items"
	"github.com/grimmgraph/grimm/internal/langref"
	"github.com/grimmgraph/grimm/internal/langscan"
	"github.com/grimmgraph/grimm/internal/pool"
	"github.com/grimmgraph/grimm/internal/serialize"
	"github.com/grimmgraph/grimm/pkg/disambig"
	pkgembedding "github.com/grimmgraph/grimm/pkg/embedding"
)

const embeddingDim = 256

// scanBufferCap bounds a single dump line. wiktextract records with long
// descendants sections can exceed bufio.Scanner's 64KiB default.
const scanBufferCap = 8 << 20

// Result is the outcome of one Run: the serialized envelope plus the
// diagnostics snapshot for the end-of-run summary (spec §7).
type Result struct {
	Envelope       serialize.Envelope
	Counters       map[string]int
	SkippedRecords int
	Pass1Duration  time.Duration
	Pass2Duration  time.Duration
}

// Pipeline owns every long-lived component for one run. Built once by
// New, driven by one Run call.
type Pipeline struct {
	cfg    config.Config
	logger *zap.Logger

	terms *intern.Table
	langs *intern.Table
	modes *intern.Table

	langTable *langref.Table
	scanner   *langscan.Scanner

	store    *items.Store
	graph    *graph.Graph
	counters *diagnostics.Counters

	embedSvc *embedding.Service

	ety  *etymology.Builder
	desc *descendants.Builder
}

// New validates cfg and wires every component. logger must not be nil;
// pass zap.NewNop() in tests, matching the reference codebase's injected-
// logger convention.
func New(cfg config.Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, diagnostics.Wrap(diagnostics.InvariantViolation, err)
	}

	terms := intern.New()
	langs := intern.New()
	modes := intern.New()

	langFile, err := os.Open(cfg.LangReferencePath)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: opening lang reference: %w", err))
	}
	defer langFile.Close()

	langTable, err := langref.Load(langFile, langs)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: loading lang reference: %w", err))
	}

	scanner, err := langscan.Build(langTable, langs)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.InvariantViolation, fmt.Errorf("pipeline: building language scanner: %w", err))
	}

	cache, err := embedding.Open(cachePath(cfg.EmbeddingsCacheDir), cfg.EmbeddingsModel, embeddingDim)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: opening embedding cache: %w", err))
	}

	counters := diagnostics.NewCounters()

	hashingModel := pkgembedding.NewHashingModel(embeddingDim, 0x5eed)
	batcher := pkgembedding.NewBatcher(hashingModel, cfg.EmbeddingsBatchSize, counters)
	embedSvc := embedding.NewService(cache, batcher)

	store := items.New(terms, langs)
	g := graph.New()

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		terms:     terms,
		langs:     langs,
		modes:     modes,
		langTable: langTable,
		scanner:   scanner,
		store:     store,
		graph:     g,
		counters:  counters,
		embedSvc:  embedSvc,
	}, nil
}

// Close releases the embedding cache. Call after Run, whether it
// succeeded or failed.
func (p *Pipeline) Close() error {
	return p.embedSvc.Close()
}

// cachePath resolves the configured cache directory to a sqlite DSN, with
// ":memory:" passed through verbatim for tests that want no filesystem
// dependency at all.
func cachePath(dir string) string {
	if dir == ":memory:" {
		return dir
	}
	return dir + "/embeddings.db"
}

// openInput opens path for reading, transparently gunzipping when the
// name ends in .gz (spec §6's gzip-transparent input stream).
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{Reader: gz, Closer: f}, nil
}

// Run executes both passes against the configured input path and
// serializes the result. Fatal error kinds (EmbedFailed, IoError,
// InvariantViolation) abort immediately; non-fatal kinds are counted and
// processing continues (spec §7).
func (p *Pipeline) Run() (Result, error) {
	pass1Start := time.Now()
	redirects, err := p.runPass1()
	if err != nil {
		return Result{}, err
	}
	pass1Duration := time.Since(pass1Start)
	p.logger.Info("pass 1 complete", zap.Int("items", p.store.Len()), zap.Duration("elapsed", pass1Duration))

	redirectTable := items.NewRedirectTable(redirects, p.counters)
	vectors := embedding.NewVectorSource(p.embedSvc)
	d := disambig.New(p.store, redirectTable, vectors)
	p.ety = etymology.New(p.terms, p.modes, p.langTable, p.store, d, p.graph, p.counters)
	p.desc = descendants.New(p.terms, p.modes, p.langTable, p.store, d, p.graph, p.scanner, p.counters)

	pass2Start := time.Now()
	if err := p.runPass2(); err != nil {
		return Result{}, err
	}
	pass2Duration := time.Since(pass2Start)
	p.logger.Info("pass 2 complete", zap.Int("edges", len(p.graph.Edges())), zap.Duration("elapsed", pass2Duration))

	metadata := p.runMetadata(pass1Duration, pass2Duration)
	env := serialize.BuildEnvelope(p.store, p.graph, p.terms, p.langs, p.modes, p.langTable, metadata)

	if err := serialize.WriteJSON(p.cfg.SerializationPath, env); err != nil {
		return Result{}, err
	}
	if p.cfg.WantsTurtle() {
		if err := serialize.WriteTurtle(p.cfg.TurtlePath, p.store, p.graph, p.modes); err != nil {
			return Result{}, err
		}
	}

	return Result{
		Envelope:       env,
		Counters:       p.counters.Snapshot(),
		SkippedRecords: p.counters.Count(diagnostics.InputMalformed),
		Pass1Duration:  pass1Duration,
		Pass2Duration:  pass2Duration,
	}, nil
}

// runPass1 streams the input once, populating the item store and
// collecting raw redirect pairs (spec §4.4's pass-1 contract).
func (p *Pipeline) runPass1() (map[intern.ID]intern.ID, error) {
	r, err := openInput(p.cfg.InputPath)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: opening input for pass 1: %w", err))
	}
	defer r.Close()

	redirects := make(map[intern.ID]intern.ID)
	sc := newLineScanner(r)
	for sc.Scan() {
		e, redirect, err := entry.Parse(sc.Bytes())
		if err != nil {
			p.counters.Record(err)
			continue
		}
		if redirect != nil {
			from := p.terms.Intern(redirect.From)
			to := p.terms.Intern(redirect.To)
			redirects[from] = to
			continue
		}
		p.store.Upsert(e)
	}
	if err := sc.Err(); err != nil {
		return nil, diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: reading input during pass 1: %w", err))
	}
	return redirects, nil
}

// runPass2 re-reads the input, resolving every item's ety citations and
// descendants lines into graph edges (spec §4.4's pass-2 contract).
func (p *Pipeline) runPass2() error {
	r, err := openInput(p.cfg.InputPath)
	if err != nil {
		return diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: opening input for pass 2: %w", err))
	}
	defer r.Close()

	sc := newLineScanner(r)
	for sc.Scan() {
		e, redirect, err := entry.Parse(sc.Bytes())
		if err != nil || redirect != nil {
			continue // already counted/recorded in pass 1
		}

		langID := p.langs.Intern(e.Lang)
		termID := p.terms.Intern(e.Term)
		id, ok := p.store.Lookup(langID, termID, e.EtyNumber)
		if !ok {
			continue // defensive: pass 1 already upserted every parseable entry
		}
		item := p.store.Get(id)

		p.ety.Process(item, e.EtyTemplates)
		p.desc.Process(item, e.Descendants)
	}
	if err := sc.Err(); err != nil {
		return diagnostics.Wrap(diagnostics.IoError, fmt.Errorf("pipeline: reading input during pass 2: %w", err))
	}
	return nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), scanBufferCap)
	return sc
}

// runMetadata builds the envelope metadata object described in SPEC_FULL
// §3: model identity, item/edge counts by kind, and pass durations.
func (p *Pipeline) runMetadata(pass1, pass2 time.Duration) map[string]string {
	allItems := p.store.All()
	real, imputed, reconstructed, upgraded := 0, 0, 0, 0
	for _, it := range allItems {
		switch {
		case it.Imputed && it.IsReplaced():
			imputed++
			upgraded++
		case it.Imputed:
			imputed++
		default:
			real++
		}
		if it.Reconstructed {
			reconstructed++
		}
	}

	edgesByMode := make(map[string]int)
	for _, e := range p.graph.Edges() {
		edgesByMode[p.modes.Resolve(e.Mode)]++
	}

	// Assembled in a pooled scratch map, then copied out: the returned
	// map escapes into the serialized envelope and must outlive this
	// call, so the scratch itself goes back to the pool once copied.
	scratch := pool.GetMeta()
	scratch["embeddingModel"] = p.cfg.EmbeddingsModel
	scratch["embeddingDimension"] = fmt.Sprint(embeddingDim)
	scratch["itemsReal"] = fmt.Sprint(real)
	scratch["itemsImputed"] = fmt.Sprint(imputed)
	scratch["itemsImputedUpgraded"] = fmt.Sprint(upgraded)
	scratch["itemsReconstructed"] = fmt.Sprint(reconstructed)
	scratch["edgesTotal"] = fmt.Sprint(len(p.graph.Edges()))
	scratch["edgesByMode"] = fmt.Sprint(edgesByMode)
	scratch["skippedRecords"] = fmt.Sprint(p.counters.Count(diagnostics.InputMalformed))
	scratch["droppedEdges"] = fmt.Sprint(p.counters.Count(diagnostics.CycleViolation))
	scratch["pass1DurationMs"] = fmt.Sprint(pass1.Milliseconds())
	scratch["pass2DurationMs"] = fmt.Sprint(pass2.Milliseconds())

	out := make(map[string]string, len(scratch))
	for k, v := range scratch {
		out[k] = v
	}
	pool.PutMeta(scratch)
	return out
}

// Langs, Terms, and Modes expose the shared interning tables for callers
// that need to resolve ids outside the pipeline (e.g. tests).
func (p *Pipeline) Langs() *intern.Table     { return p.langs }
func (p *Pipeline) Terms() *intern.Table     { return p.terms }
func (p *Pipeline) Modes() *intern.Table     { return p.modes }
func (p *Pipeline) Store() *items.Store      { return p.store }
func (p *Pipeline) Graph() *graph.Graph      { return p.graph }
func (p *Pipeline) LangTable() *langref.Table { return p.langTable }
