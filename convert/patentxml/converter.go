package patentxml

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/ipgest/convert"
	"github.com/poiesic/ipgest/core"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/net/html/charset"
)

// Table names produced by the converter.
const (
	TableAssignee = "assignee"
	TableCitation = "citation"
	TableClass    = "class"
	TableInventor = "inventor"
	TablePatent   = "patent"
	TablePatDesc  = "patdesc"
	TableLawyer   = "lawyer"
	TableSciRef   = "sciref"
	TableUSRelDoc = "usreldoc"
)

// Default description chunking.
const (
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 0
)

// Converter converts grant fragments into records.
type Converter struct {
	chunkSize    int
	chunkOverlap int
	description  bool
	splitter     textsplitter.TextSplitter
}

var _ convert.Converter = (*Converter)(nil)

// Option configures a Converter.
type Option func(*Converter)

// WithChunkSize sets the maximum size in characters of a patdesc chunk.
func WithChunkSize(size int) Option {
	return func(c *Converter) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap between consecutive patdesc chunks.
func WithChunkOverlap(overlap int) Option {
	return func(c *Converter) {
		if overlap >= 0 {
			c.chunkOverlap = overlap
		}
	}
}

// WithDescription controls whether the full description is stored in
// patdesc. The abstract is always stored.
func WithDescription(enabled bool) Option {
	return func(c *Converter) {
		c.description = enabled
	}
}

// New creates a grant converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		description:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunkOverlap >= c.chunkSize {
		c.chunkOverlap = 0
	}
	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
	)
	return c
}

// Convert parses one grant document.
func (c *Converter) Convert(ctx context.Context, f core.Fragment) (*core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := decode(f.Text)
	if err != nil {
		return nil, core.NewConversionError(CategoryXMLSyntax, f, err)
	}
	if g.XMLName.Local != rootElement {
		return nil, core.NewConversionError(CategoryNotAGrant, f,
			fmt.Errorf("%w: root element %q", ErrNotAGrant, g.XMLName.Local))
	}

	docNumber := scrubString(g.Bib.Publication.DocNumber)
	if docNumber == "" {
		return nil, core.NewConversionError(CategoryMissingField, f, ErrMissingDocNumber)
	}

	rec := &core.Record{
		ID:        core.IDFromContent(docNumber),
		DocNumber: docNumber,
		Source:    f.Source,
		Ordinal:   f.Ordinal,
	}
	b := rowBuilder{rec: rec, docNumber: docNumber}

	b.patent(g)
	b.inventors(g.Bib)
	b.assignees(g.Bib.Assignees)
	b.citations(g.Bib)
	b.classes(g.Bib)
	b.lawyers(g.Bib)
	b.relatedDocs(g.Bib.Related)

	if err := c.descriptions(&b, g); err != nil {
		return nil, core.NewConversionError(CategoryDescription, f, err)
	}

	return rec, nil
}

// decode reads the first element of text leniently: unknown entities are
// left alone and missing end tags are invented.
func decode(text string) (*grant, error) {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	var g grant
	if err := d.Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Converter) descriptions(b *rowBuilder, g *grant) error {
	type section struct {
		name string
		text textContent
	}
	sections := []section{{"abstract", g.Abstract}}
	if c.description {
		sections = append(sections, section{"description", g.Description})
	}

	for _, s := range sections {
		if s.text == "" {
			continue
		}
		chunks, err := c.splitter.SplitText(s.text.String())
		if err != nil {
			return fmt.Errorf("splitting %s: %w", s.name, err)
		}
		for i, chunk := range chunks {
			b.add(TablePatDesc, core.Row{
				"section": s.name,
				"chunk":   strconv.Itoa(i),
				"text":    chunk,
			})
		}
	}
	return nil
}

// rowBuilder adds rows keyed by the record's doc number.
type rowBuilder struct {
	rec       *core.Record
	docNumber string
}

func (b *rowBuilder) add(table string, row core.Row) {
	row["doc_number"] = b.docNumber
	b.rec.AddRow(table, row)
}

func (b *rowBuilder) patent(g *grant) {
	pub := g.Bib.Publication
	app := g.Bib.Application
	b.add(TablePatent, core.Row{
		"country":     scrubString(pub.Country),
		"kind":        scrubString(pub.Kind),
		"grant_date":  scrubString(pub.Date),
		"app_number":  scrubString(app.DocID.DocNumber),
		"app_date":    scrubString(app.DocID.Date),
		"app_type":    scrubString(app.Type),
		"series_code": scrubString(g.Bib.SeriesCode),
		"title":       scrubString(g.Bib.Title.String()),
		"num_claims":  scrubString(g.Bib.NumClaims),
		"file":        g.File,
		"dtd_version": g.DTDVersion,
	})
}

func (b *rowBuilder) inventors(bib bibliographic) {
	inventors := bib.Inventors
	if len(inventors) == 0 {
		// Older layouts list inventors among the applicants
		for _, p := range bib.Applicants {
			if strings.Contains(p.AppType, "inventor") {
				inventors = append(inventors, p)
			}
		}
	}
	for i, p := range inventors {
		a := p.AddressBook
		b.add(TableInventor, core.Row{
			"sequence":   sequence(p.Sequence, i),
			"first_name": scrubString(a.FirstName),
			"last_name":  scrubString(a.LastName),
			"city":       scrubString(a.City),
			"state":      scrubString(a.State),
			"country":    scrubString(a.Country),
		})
	}
}

func (b *rowBuilder) assignees(assignees []party) {
	for i, p := range assignees {
		a := p.AddressBook
		b.add(TableAssignee, core.Row{
			"sequence":   sequence(p.Sequence, i),
			"org_name":   scrubString(a.OrgName),
			"first_name": scrubString(a.FirstName),
			"last_name":  scrubString(a.LastName),
			"role":       scrubString(a.Role),
			"city":       scrubString(a.City),
			"state":      scrubString(a.State),
			"country":    scrubString(a.Country),
		})
	}
}

func (b *rowBuilder) citations(bib bibliographic) {
	citations := bib.USCitations
	if len(citations) == 0 {
		citations = bib.Citations
	}
	for i, c := range citations {
		switch {
		case c.Patent != nil:
			id := c.Patent.DocID
			b.add(TableCitation, core.Row{
				"sequence":         sequence(c.Patent.Num, i),
				"cited_country":    scrubString(id.Country),
				"cited_doc_number": scrubString(id.DocNumber),
				"cited_kind":       scrubString(id.Kind),
				"cited_name":       scrubString(id.Name),
				"cited_date":       scrubString(id.Date),
				"category":         scrubString(c.Category),
			})
		case c.NonPatent != nil:
			b.add(TableSciRef, core.Row{
				"sequence": sequence(c.NonPatent.Num, i),
				"text":     scrubString(c.NonPatent.Text.String()),
				"category": scrubString(c.Category),
			})
		}
	}
}

func (b *rowBuilder) classes(bib bibliographic) {
	if main := scrubString(bib.National.Main); main != "" {
		b.add(TableClass, core.Row{"scheme": "national", "main": "1", "value": main})
	}
	for _, further := range bib.National.Further {
		if further = scrubString(further); further != "" {
			b.add(TableClass, core.Row{"scheme": "national", "main": "0", "value": further})
		}
	}
	for i, c := range bib.IPCR {
		group := joinNonEmpty("/", c.MainGroup, c.Subgroup)
		value := joinNonEmpty(" ", scrubString(c.Section)+scrubString(c.Class)+scrubString(c.Subclass), group)
		if value == "" {
			continue
		}
		main := "0"
		if i == 0 {
			main = "1"
		}
		b.add(TableClass, core.Row{"scheme": "ipcr", "main": main, "value": value})
	}
}

func (b *rowBuilder) lawyers(bib bibliographic) {
	agents := bib.USAgents
	if len(agents) == 0 {
		agents = bib.Agents
	}
	for i, p := range agents {
		a := p.AddressBook
		b.add(TableLawyer, core.Row{
			"sequence":   sequence(p.Sequence, i),
			"org_name":   scrubString(a.OrgName),
			"first_name": scrubString(a.FirstName),
			"last_name":  scrubString(a.LastName),
			"rep_type":   scrubString(p.RepType),
			"country":    scrubString(a.Country),
		})
	}
}

func (b *rowBuilder) relatedDocs(r related) {
	for _, d := range r.Docs {
		for _, ref := range []struct {
			role   string
			id     documentID
			status string
		}{
			{"parent", d.Parent, d.Status},
			{"child", d.Child, ""},
			{"document", d.DocID, ""},
		} {
			if scrubString(ref.id.DocNumber) == "" {
				continue
			}
			b.add(TableUSRelDoc, core.Row{
				"relation":       d.Relation,
				"role":           ref.role,
				"country":        scrubString(ref.id.Country),
				"rel_doc_number": scrubString(ref.id.DocNumber),
				"kind":           scrubString(ref.id.Kind),
				"date":           scrubString(ref.id.Date),
				"status":         scrubString(ref.status),
			})
		}
	}
}

// sequence returns the document's sequence attribute, or the 1-based
// position when the attribute is absent.
func sequence(attr string, index int) string {
	if attr = scrubString(attr); attr != "" {
		return attr
	}
	return strconv.Itoa(index + 1)
}
