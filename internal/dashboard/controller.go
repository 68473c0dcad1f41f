// Package dashboard holds the state of the record list: paging, filters,
// local edits, the side panel and toasts. Nothing here does I/O on its own;
// callers run the returned Requests and feed the results back.
package dashboard

import (
	"context"
	"errors"
	"time"

	"pitchdesk/internal/api"
	"pitchdesk/internal/model"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 20
	DebounceWindow  = 500 * time.Millisecond
)

var ErrUnknownRecord = errors.New("record not on the current page")

type Page struct {
	Number     int
	Size       int
	TotalCount int
	Items      []model.Record
}

type Filter struct {
	SearchTerm      string
	DebouncedSearch string
	TimeFilter      model.TimeFilter
}

// Request is one fetch the caller should run. WithCount adds the count query.
type Request struct {
	Seq        uint64
	Page       int
	Limit      int
	Search     string
	TimeFilter model.TimeFilter
	WithCount  bool
}

func (r Request) Query() api.Query {
	return api.Query{Page: r.Page, Limit: r.Limit, Search: r.Search, TimeFilter: r.TimeFilter}
}

// Fetcher is satisfied by *api.Backend.
type Fetcher interface {
	ListRecords(ctx context.Context, q api.Query) ([]model.Record, error)
	CountRecords(ctx context.Context, search string, tf model.TimeFilter) (int, error)
}

type Result struct {
	Req      Request
	Rows     []model.Record
	RowsErr  error
	Count    int
	CountErr error
}

// Err returns the first failure of the result, if any.
func (r Result) Err() error {
	if r.RowsErr != nil {
		return r.RowsErr
	}
	if r.Req.WithCount {
		return r.CountErr
	}
	return nil
}

// Load runs req against f. Page and count are fetched concurrently and fail independently.
func Load(ctx context.Context, f Fetcher, req Request) Result {
	res := Result{Req: req}
	var g errgroup.Group
	g.Go(func() error {
		res.Rows, res.RowsErr = f.ListRecords(ctx, req.Query())
		return nil
	})
	if req.WithCount {
		g.Go(func() error {
			res.Count, res.CountErr = f.CountRecords(ctx, req.Search, req.TimeFilter)
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// ListController owns the page window and the filters.
type ListController struct {
	Page         Page
	Filter       Filter
	ScrollOffset int
	Loading      bool

	seq      uint64
	debounce uint64
	// pending is the page of the latest in-flight request, 0 when idle.
	pending int
	// awaiting counts the parts (page, count) of the latest request not yet applied.
	awaiting int
}

func NewListController(pageSize int) *ListController {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ListController{
		Page:   Page{Number: 1, Size: pageSize},
		Filter: Filter{TimeFilter: model.TimeAll},
	}
}

func (c *ListController) issue(page int, withCount bool) Request {
	c.seq++
	c.Loading = true
	c.pending = page
	c.awaiting = 1
	if withCount {
		c.awaiting = 2
	}
	return Request{
		Seq:        c.seq,
		Page:       page,
		Limit:      c.Page.Size,
		Search:     c.Filter.DebouncedSearch,
		TimeFilter: c.Filter.TimeFilter,
		WithCount:  withCount,
	}
}

// Mount returns the initial request: page 1 with count.
func (c *ListController) Mount() Request {
	c.Page.Number = 1
	return c.issue(1, true)
}

// Restore replaces the whole state with s. The caller checks Snapshot.Usable first.
func (c *ListController) Restore(s Snapshot) {
	c.Page = Page{
		Number:     s.PageNumber,
		Size:       c.Page.Size,
		TotalCount: s.TotalCount,
		Items:      dedupe(s.Items),
	}
	c.Filter = Filter{
		SearchTerm:      s.SearchTerm,
		DebouncedSearch: s.DebouncedSearch,
		TimeFilter:      s.TimeFilter,
	}
	if c.Filter.TimeFilter == "" {
		c.Filter.TimeFilter = model.TimeAll
	}
	c.ScrollOffset = s.ScrollOffset
	c.Loading = false
	c.pending = 0
	c.awaiting = 0
	c.clamp()
}

func (c *ListController) SetTimeFilter(tf model.TimeFilter) Request {
	c.Filter.TimeFilter = tf
	c.Page.Number = 1
	c.ScrollOffset = 0
	return c.issue(1, true)
}

// TypeSearch records a keystroke and returns the token to commit after DebounceWindow.
func (c *ListController) TypeSearch(term string) uint64 {
	c.Filter.SearchTerm = term
	c.debounce++
	return c.debounce
}

// CommitSearch commits the typed term if token is still the latest one and the term changed.
func (c *ListController) CommitSearch(token uint64) (Request, bool) {
	if token != c.debounce {
		return Request{}, false
	}
	if c.Filter.SearchTerm == c.Filter.DebouncedSearch {
		return Request{}, false
	}
	c.Filter.DebouncedSearch = c.Filter.SearchTerm
	c.Page.Number = 1
	c.ScrollOffset = 0
	return c.issue(1, true), true
}

func (c *ListController) TotalPages() int {
	if c.Page.Size <= 0 || c.Page.TotalCount <= 0 {
		return 0
	}
	return (c.Page.TotalCount + c.Page.Size - 1) / c.Page.Size
}

// GoToPage requests page n; out-of-range pages are rejected.
func (c *ListController) GoToPage(n int) (Request, bool) {
	if n < 1 || n > c.TotalPages() {
		return Request{}, false
	}
	return c.issue(n, false), true
}

func (c *ListController) current() int {
	if c.pending > 0 {
		return c.pending
	}
	return c.Page.Number
}

func (c *ListController) NextPage() (Request, bool) { return c.GoToPage(c.current() + 1) }

func (c *ListController) PrevPage() (Request, bool) { return c.GoToPage(c.current() - 1) }

// Refresh refetches page 1 with count. The caller drops the stored snapshot.
func (c *ListController) Refresh() Request {
	c.Page.Number = 1
	c.ScrollOffset = 0
	return c.issue(1, true)
}

// Latest reports whether seq belongs to the most recent request.
func (c *ListController) Latest(seq uint64) bool { return seq == c.seq }

func (c *ListController) settle() {
	c.Loading = false
	c.pending = 0
	c.awaiting = 0
}

// done marks one part of the latest request as finished.
func (c *ListController) done() {
	c.awaiting--
	if c.awaiting <= 0 {
		c.settle()
	}
}

// ApplyPage installs rows for page. Results of superseded requests are dropped.
func (c *ListController) ApplyPage(seq uint64, page int, rows []model.Record) bool {
	if !c.Latest(seq) {
		return false
	}
	c.Page.Items = dedupe(rows)
	c.Page.Number = page
	if c.ScrollOffset >= len(c.Page.Items) {
		c.ScrollOffset = 0
	}
	c.done()
	c.clamp()
	return true
}

func (c *ListController) ApplyCount(seq uint64, n int) bool {
	if !c.Latest(seq) {
		return false
	}
	if n < 0 {
		n = 0
	}
	c.Page.TotalCount = n
	c.done()
	c.clamp()
	return true
}

// Fail settles a failed request; prior items and count are left as they were.
func (c *ListController) Fail(seq uint64, err error) bool {
	if !c.Latest(seq) {
		return false
	}
	c.settle()
	return err != nil
}

// Apply feeds a Load result back. It reports whether the result was current.
// A page+count load is all or nothing so the window and the count always
// share one filter state; on any failure the prior items and count stay.
func (c *ListController) Apply(res Result) bool {
	seq := res.Req.Seq
	if !c.Latest(seq) {
		return false
	}
	if res.Req.WithCount && (res.RowsErr != nil || res.CountErr != nil) {
		c.settle()
		return true
	}
	if res.RowsErr == nil {
		c.ApplyPage(seq, res.Req.Page, res.Rows)
	}
	if res.Req.WithCount && res.CountErr == nil {
		c.ApplyCount(seq, res.Count)
	}
	c.settle()
	return true
}

func (c *ListController) clamp() {
	maxPage := c.TotalPages()
	if maxPage < 1 {
		maxPage = 1
	}
	if c.Page.Number > maxPage {
		c.Page.Number = maxPage
	}
	if c.Page.Number < 1 {
		c.Page.Number = 1
	}
}

// Find returns the index of id in the current items, or -1.
func (c *ListController) Find(id string) int {
	for i := range c.Page.Items {
		if c.Page.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// dedupe keeps one record per id at its first position; later duplicates overwrite its data.
func dedupe(rows []model.Record) []model.Record {
	out := make([]model.Record, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, r := range rows {
		if i, ok := index[r.ID]; ok {
			out[i] = r
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}
