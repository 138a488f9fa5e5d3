package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"finscrape/internal/dataprocessing"
	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

var datePattern = regexp.MustCompile(`[0-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]`)

// FieldResult is the outcome of reading one field. A non-nil Err means the
// value is MISSING in the assembled record.
type FieldResult struct {
	Field domain.Field
	Value domain.Value
	Err   error
}

// Extractor turns one WorkItem into one complete Record. It is safe to reuse
// across items; each Extract call opens and closes its own session.
type Extractor struct {
	opener      SessionOpener
	layout      *Layout
	locator     Locator
	fallbacks   []string
	resultUnit  dataprocessing.Unit
	derivations []dataprocessing.Derivation
	logger      *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithLocator(l Locator) Option {
	return func(e *Extractor) { e.locator = l }
}

// WithFallbackRegistries sets the registries tried after the work item's hint
func WithFallbackRegistries(registries ...string) Option {
	return func(e *Extractor) { e.fallbacks = append([]string(nil), registries...) }
}

// WithResultUnit sets the unit monetary values are reported in
func WithResultUnit(u dataprocessing.Unit) Option {
	return func(e *Extractor) { e.resultUnit = u }
}

func WithDerivations(d []dataprocessing.Derivation) Option {
	return func(e *Extractor) { e.derivations = d }
}

// New creates an Extractor. A nil layout selects DefaultLayout.
func New(opener SessionOpener, layout *Layout, opts ...Option) *Extractor {
	if layout == nil {
		layout = DefaultLayout()
	}
	e := &Extractor{
		opener:      opener,
		layout:      layout,
		locator:     DefaultLocator,
		resultUnit:  dataprocessing.UnitThousand,
		derivations: dataprocessing.DefaultDerivations,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type resolution struct {
	registry string
	symbol   string
	locator  string
	status   domain.Resolution
}

// extraction accumulates the results of one Extract call
type extraction struct {
	results     []FieldResult
	unavailable dataprocessing.SectionSet
	failures    []error
}

func (x *extraction) add(r FieldResult) {
	x.results = append(x.results, r)
}

// Extract reads every schema field for item. It never fails: sessions that
// cannot be opened, sections that cannot be reached and fields that cannot be
// read all end up as MISSING slots of the returned record.
func (e *Extractor) Extract(ctx context.Context, item domain.WorkItem) *domain.Record {
	identifier := strings.TrimSpace(item.Identifier)
	logger := e.logger.With(
		slog.Int("index", item.Index),
		slog.String("identifier", identifier),
	)

	if identifier == "" {
		err := apperrors.NewFieldExtractionError(string(domain.FieldStockSymbol), errors.New("blank identifier"))
		logger.Warn("skipping blank identifier")
		return domain.NewRecord(item, domain.ResolutionUnresolved, nil, []error{err})
	}

	src, err := e.opener.Open(ctx)
	if err != nil {
		logger.Error("failed to open document source", slog.String("error", err.Error()))
		return domain.NewRecord(item, domain.ResolutionUnresolved, nil,
			[]error{apperrors.NewSectionUnavailableError("session", err)})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Debug("failed to close document source", slog.String("error", cerr.Error()))
		}
	}()

	x := &extraction{unavailable: make(dataprocessing.SectionSet)}

	res := e.resolve(ctx, src, identifier, item.Registry, logger)
	e.extractSummary(ctx, src, res, x, logger)

	registry, symbol := res.registry, res.symbol
	if res.status == domain.ResolutionUnresolved {
		registry, symbol = strings.ToUpper(strings.TrimSpace(item.Registry)), identifier
	}
	financials := e.locator.Financials(registry, symbol)
	if err := src.Navigate(ctx, financials); err != nil {
		for _, plan := range e.layout.Sections() {
			e.markUnavailable(plan.ID, fmt.Errorf("navigate to %s: %w", financials, err), x, logger)
		}
	} else {
		for _, plan := range e.layout.Sections() {
			e.extractSection(ctx, src, plan, x, logger)
		}
	}

	values, failures := assemble(x.results)
	dataprocessing.DeriveAll(values, e.derivations, x.unavailable)

	rec := domain.NewRecord(item, res.status, values, append(x.failures, failures...))
	logger.Debug("extracted record",
		slog.String("resolution", string(res.status)),
		slog.Int("missing", rec.MissingCount()))
	return rec
}

// resolve walks the registry candidates until the source resolves the
// identifier to itself. Without an exact match the last resolved outcome is
// kept and reported as a mismatch.
func (e *Extractor) resolve(ctx context.Context, src DocumentSource, identifier, hint string, logger *slog.Logger) resolution {
	var accepted *resolution
	loaded := ""

	for _, registry := range Candidates(hint, e.fallbacks) {
		loc := e.locator.Summary(registry, identifier)
		if err := src.Navigate(ctx, loc); err != nil {
			loaded = ""
			logger.Debug("navigation failed", slog.String("locator", loc), slog.String("error", err.Error()))
			continue
		}
		loaded = loc

		text, err := src.ReadField(ctx, e.layout.Identifier())
		if err != nil {
			logger.Debug("identifier not resolved", slog.String("registry", registry), slog.String("error", err.Error()))
			continue
		}
		resolvedRegistry, symbol, ok := ParseResolved(text)
		if !ok {
			continue
		}

		r := resolution{registry: resolvedRegistry, symbol: symbol, locator: loc}
		if domain.SymbolMatches(identifier, symbol) {
			r.status = domain.ResolutionMatched
			return r
		}
		r.status = domain.ResolutionMismatch
		accepted = &r
	}

	if accepted == nil {
		logger.Warn("identifier could not be resolved")
		return resolution{status: domain.ResolutionUnresolved}
	}
	if loaded != accepted.locator {
		if err := src.Navigate(ctx, accepted.locator); err != nil {
			logger.Warn("identifier could not be resolved", slog.String("error", err.Error()))
			return resolution{status: domain.ResolutionUnresolved}
		}
	}

	mismatch := apperrors.NewRegistryMismatchError(identifier, accepted.symbol)
	logger.Warn("registry mismatch, continuing with resolved identifier",
		slog.String("resolved", accepted.symbol),
		slog.String("registry", accepted.registry),
		slog.String("error", mismatch.Error()))
	return *accepted
}

func (e *Extractor) extractSummary(ctx context.Context, src DocumentSource, res resolution, x *extraction, logger *slog.Logger) {
	if res.status == domain.ResolutionUnresolved {
		cause := errors.New("identifier not resolved")
		x.add(FieldResult{Field: domain.FieldStockSymbol, Err: cause})
		x.add(FieldResult{Field: domain.FieldExchange, Err: cause})
	} else {
		x.add(FieldResult{Field: domain.FieldStockSymbol, Value: domain.Text(res.symbol)})
		if res.registry != "" {
			x.add(FieldResult{Field: domain.FieldExchange, Value: domain.Text(res.registry)})
		} else {
			x.add(FieldResult{Field: domain.FieldExchange, Err: errors.New("resolved identifier has no registry")})
		}
	}

	for _, sel := range e.layout.Summary() {
		x.add(e.readCell(ctx, src, sel, 1, logger))
	}
}

func (e *Extractor) extractSection(ctx context.Context, src DocumentSource, plan SectionPlan, x *extraction, logger *slog.Logger) {
	for _, alternates := range plan.Clicks {
		if err := clickFirst(ctx, src, alternates); err != nil {
			e.markUnavailable(plan.ID, err, x, logger)
			return
		}
	}

	headers, err := src.ReadAll(ctx, plan.PeriodHeader)
	if err != nil {
		e.markUnavailable(plan.ID, fmt.Errorf("read period header: %w", err), x, logger)
		return
	}
	state := PeriodStateOf(len(headers))
	if state == PeriodNone {
		e.markUnavailable(plan.ID, errors.New("no reporting periods"), x, logger)
		return
	}

	label, err := src.ReadField(ctx, plan.Scale)
	if err != nil {
		e.markUnavailable(plan.ID, fmt.Errorf("read scale label: %w", err), x, logger)
		return
	}
	scale := dataprocessing.ScaleFromLabel(label)

	logger.Debug("reading section",
		slog.String("section", string(plan.ID)),
		slog.String("periods", state.String()),
		slog.Float64("scale", scale))

	for _, sel := range e.layout.Selectors(plan.ID, state) {
		x.add(e.readCell(ctx, src, sel, scale, logger))
	}
}

func (e *Extractor) markUnavailable(id domain.SectionID, cause error, x *extraction, logger *slog.Logger) {
	x.unavailable[id] = true
	err := apperrors.NewSectionUnavailableError(string(id), cause)
	x.failures = append(x.failures, err)
	logger.Warn("section unavailable", slog.String("section", string(id)), slog.String("error", err.Error()))
}

// readCell reads and interprets one selector. Numbers are multiplied by the
// section scale and expressed in the result unit.
func (e *Extractor) readCell(ctx context.Context, src DocumentSource, sel Selector, scale float64, logger *slog.Logger) FieldResult {
	text, err := src.ReadField(ctx, sel.XPath)
	if err != nil {
		logger.Debug("field not found", slog.String("field", string(sel.Field)), slog.String("error", err.Error()))
		return FieldResult{Field: sel.Field, Err: err}
	}

	v, err := interpret(text, sel.Kind, scale, e.resultUnit)
	if err != nil {
		logger.Debug("field not parsed", slog.String("field", string(sel.Field)), slog.String("error", err.Error()))
		return FieldResult{Field: sel.Field, Err: err}
	}
	return FieldResult{Field: sel.Field, Value: v}
}

func interpret(text string, kind CellKind, scale float64, unit dataprocessing.Unit) (domain.Value, error) {
	switch kind {
	case KindNumber:
		n, err := dataprocessing.Parse(text, dataprocessing.UnitNone)
		if err != nil {
			return domain.Missing(), err
		}
		return domain.Number(n * scale / unit.Factor()), nil
	case KindInteger:
		n, err := dataprocessing.Parse(text, dataprocessing.UnitNone)
		if err != nil {
			return domain.Missing(), err
		}
		return domain.Number(math.Trunc(n)), nil
	case KindDate:
		m := datePattern.FindString(text)
		if m == "" {
			return domain.Missing(), apperrors.NewParsingError(fmt.Sprintf("no date in %q", text), nil)
		}
		t, err := time.Parse(domain.DateLayout, m)
		if err != nil {
			return domain.Missing(), apperrors.NewParsingError(fmt.Sprintf("invalid date %q", m), err)
		}
		return domain.Date(t), nil
	default:
		s := strings.TrimSpace(text)
		if s == "" {
			return domain.Missing(), errors.New("empty text")
		}
		return domain.Text(s), nil
	}
}

func clickFirst(ctx context.Context, src DocumentSource, alternates []string) error {
	var errs []error
	for _, sel := range alternates {
		err := src.Click(ctx, sel)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("click failed: %w", errors.Join(errs...))
}

// assemble maps field results onto record values; failed reads are left out
// and so become MISSING.
func assemble(results []FieldResult) (map[domain.Field]domain.Value, []error) {
	values := make(map[domain.Field]domain.Value, len(results))
	var failures []error
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, apperrors.NewFieldExtractionError(string(r.Field), r.Err))
			continue
		}
		values[r.Field] = r.Value
	}
	return values, failures
}
