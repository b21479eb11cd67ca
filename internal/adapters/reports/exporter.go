// Package reports renders colony reports as CSV and archives them in blob
// storage under reports/<kind>/<date>-<id>.csv.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mousecolony/internal/blob"
	"mousecolony/internal/colony"
	"mousecolony/internal/core"
	"mousecolony/internal/husbandry"
)

// Kind names a report.
type Kind string

// Report kinds.
const (
	KindCensusByGenotype Kind = "census-by-genotype"
	KindNeeds            Kind = "needs"
	KindLitters          Kind = "litters"
	KindSummary          Kind = "summary"
)

// Kinds lists every report kind.
func Kinds() []Kind {
	return []Kind{KindCensusByGenotype, KindNeeds, KindLitters, KindSummary}
}

// ParseKind validates a report name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report %q", s)
}

const (
	dateLayout  = "2006-01-02"
	contentType = "text/csv"
	keyPrefix   = "reports/"
)

// Source supplies report data; *core.Service satisfies it.
type Source interface {
	CensusByGenotype(ctx context.Context, filter colony.CensusFilter) ([]colony.GenesetGroup, error)
	Needs(ctx context.Context, filter colony.CensusFilter, today time.Time) ([]core.CageNeeds, error)
	CurrentLitters(ctx context.Context) ([]husbandry.CurrentLitter, error)
	Summary(ctx context.Context) (colony.Summary, error)
}

// Artifact describes an archived report.
type Artifact struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Exporter renders and archives reports.
type Exporter struct {
	source Source
	store  blob.Store
	logger core.Logger
	newID  func() string
	filter colony.CensusFilter
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger logs each archived report at Info.
func WithLogger(l core.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFilter narrows the census-based reports.
func WithFilter(f colony.CensusFilter) Option {
	return func(e *Exporter) { e.filter = f }
}

// NewExporter returns an exporter reading from source and writing to store.
func NewExporter(source Source, store blob.Store, opts ...Option) *Exporter {
	e := &Exporter{source: source, store: store, logger: core.NopLogger(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render writes the report as CSV and returns the number of data rows.
func (e *Exporter) Render(ctx context.Context, kind Kind, today time.Time) ([]byte, int, error) {
	var records [][]string
	var err error
	switch kind {
	case KindCensusByGenotype:
		records, err = e.censusRecords(ctx)
	case KindNeeds:
		records, err = e.needsRecords(ctx, today)
	case KindLitters:
		records, err = e.litterRecords(ctx)
	case KindSummary:
		records, err = e.summaryRecords(ctx)
	default:
		return nil, 0, fmt.Errorf("unknown report %q", kind)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("render %s: %w", kind, err)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, 0, fmt.Errorf("write %s: %w", kind, err)
	}
	return buf.Bytes(), len(records) - 1, nil
}

// Export renders the report and archives it.
func (e *Exporter) Export(ctx context.Context, kind Kind, today time.Time) (Artifact, error) {
	payload, rows, err := e.Render(ctx, kind, today)
	if err != nil {
		return Artifact{}, err
	}
	id := e.newID()
	key := fmt.Sprintf("%s%s/%s-%s.csv", keyPrefix, kind, colony.Day(today).Format(dateLayout), id)
	obj, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Labels:      map[string]string{"kind": string(kind), "rows": strconv.Itoa(rows)},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("archive %s: %w", kind, err)
	}
	e.logger.Info("report archived", "kind", kind, "key", obj.Key, "rows", rows)
	return Artifact{ID: id, Kind: kind, Key: obj.Key, Rows: rows, SizeBytes: obj.Size, CreatedAt: obj.ModifiedAt}, nil
}

// List returns the archived reports of a kind, oldest first.
func (e *Exporter) List(ctx context.Context, kind Kind) ([]Artifact, error) {
	prefix := keyPrefix + string(kind) + "/"
	objs, err := e.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]Artifact, 0, len(objs))
	for _, obj := range objs {
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), ".csv")
		a := Artifact{Kind: kind, Key: obj.Key, SizeBytes: obj.Size, CreatedAt: obj.ModifiedAt}
		if len(name) > len(dateLayout)+1 {
			a.ID = name[len(dateLayout)+1:]
		}
		out = append(out, a)
	}
	return out, nil
}

func (e *Exporter) censusRecords(ctx context.Context) ([][]string, error) {
	groups, err := e.source.CensusByGenotype(ctx, e.filter)
	if err != nil {
		return nil, err
	}
	records := [][]string{{"geneset", "cage", "type", "proprietor", "location", "residents"}}
	for _, g := range groups {
		for _, c := range g.Cages {
			records = append(records, []string{
				g.Geneset.String(),
				c.Cage.Name,
				string(c.Type()),
				proprietorName(c),
				string(c.Cage.Location),
				strconv.Itoa(len(c.Residents)),
			})
		}
	}
	return records, nil
}

func (e *Exporter) needsRecords(ctx context.Context, today time.Time) ([][]string, error) {
	rows, err := e.source.Needs(ctx, e.filter, today)
	if err != nil {
		return nil, err
	}
	records := [][]string{{"cage", "proprietor", "need", "status"}}
	for _, r := range rows {
		for _, m := range r.Messages {
			records = append(records, []string{r.CageName, r.Proprietor, m.Text, styleName(m.Style)})
		}
	}
	return records, nil
}

func (e *Exporter) litterRecords(ctx context.Context) ([][]string, error) {
	litters, err := e.source.CurrentLitters(ctx)
	if err != nil {
		return nil, err
	}
	records := [][]string{{"cage", "sticker", "dob", "early_wean", "late_wean", "maturity"}}
	for _, l := range litters {
		records = append(records, []string{
			l.CageName,
			l.Sticker,
			l.DOB.Format(dateLayout),
			l.EarlyWean.Format(dateLayout),
			l.LateWean.Format(dateLayout),
			l.Maturity.Format(dateLayout),
		})
	}
	return records, nil
}

func (e *Exporter) summaryRecords(ctx context.Context) ([][]string, error) {
	s, err := e.source.Summary(ctx)
	if err != nil {
		return nil, err
	}
	records := [][]string{{"person", "cages", "mice", "current_cages", "current_mice"}}
	totals := s.Totals
	totals.Name = "Total"
	rows := append(append([]colony.SummaryRow(nil), s.Rows...), totals)
	for _, r := range rows {
		records = append(records, []string{
			r.Name,
			strconv.Itoa(r.Cages),
			strconv.Itoa(r.Mice),
			strconv.Itoa(r.CurrentCages),
			strconv.Itoa(r.CurrentMice),
		})
	}
	return records, nil
}

func proprietorName(c colony.CageAggregate) string {
	if c.Proprietor == nil {
		return ""
	}
	return c.Proprietor.Name
}

func styleName(s husbandry.Style) string {
	switch s {
	case husbandry.StyleUrgent:
		return "urgent"
	case husbandry.StyleDone:
		return "done"
	default:
		return "due"
	}
}
