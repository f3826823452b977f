package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/collector"
	"github.com/blevesearch/bleve/v2/search/query"
	bleveindex "github.com/blevesearch/bleve_index_api"

	"github.com/lexandro/hslindex/hsl"
)

const (
	nameField       = "name"
	pathField       = "path"
	nameAnalyzer    = "hsl_name"
	indexMetaFile   = "index_meta.json"
	idPageSize      = 1000
	deleteBatchSize = 500
)

// ErrNotAnIndex is returned when CreateNew is pointed at a non-empty directory that is not an index.
var ErrNotAnIndex = errors.New("directory exists and is not an index")

// Engine is a persistent file metadata index backed by bleve.
// Writes go straight to the index; searches use a cached read snapshot that only
// moves forward when Refresh is called.
type Engine struct {
	path  string
	index bleve.Index

	mu     sync.RWMutex // guards reader
	reader bleveindex.IndexReader
}

// SearchResult holds the total number of matches and the ids of the returned page.
type SearchResult struct {
	Total uint64
	Paths []string
}

// buildIndexMapping creates the bleve mapping for file metadata documents.
func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(nameAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("registering name analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = nameAnalyzer
	nameFieldMapping.Store = false
	nameFieldMapping.IncludeInAll = false
	nameFieldMapping.IncludeTermVectors = false
	docMapping.AddFieldMappingsAt(nameField, nameFieldMapping)

	pathFieldMapping := bleve.NewKeywordFieldMapping()
	pathFieldMapping.Store = false
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(pathField, pathFieldMapping)

	for _, field := range []string{
		hsl.SymbolSize.Field(),
		hsl.SymbolCreated.Field(),
		hsl.SymbolLastModified.Field(),
	} {
		numericFieldMapping := bleve.NewNumericFieldMapping()
		numericFieldMapping.Store = false
		numericFieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, numericFieldMapping)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// ReadOnlyLockTimeout bounds how long OpenReadOnly waits for a writer's lock.
const ReadOnlyLockTimeout = 2 * time.Second

// Exists reports whether path holds a bleve index.
func Exists(path string) bool {
	_, err := os.Stat(filepath.Join(path, indexMetaFile))
	return err == nil
}

// CreateNew creates an empty index at path, discarding any index already there.
// A non-empty directory that is not an index is left alone and ErrNotAnIndex returned.
func CreateNew(path string) (*Engine, error) {
	if err := clearIndexDir(path); err != nil {
		return nil, err
	}
	return create(path)
}

// OpenForAppend opens the index at path, creating it when nothing exists there yet.
func OpenForAppend(path string) (*Engine, error) {
	bleveIndex, err := bleve.Open(path)
	switch {
	case err == nil:
		return &Engine{path: path, index: bleveIndex}, nil
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		return create(path)
	case errors.Is(err, bleve.ErrorIndexMetaMissing) && isEmptyDir(path):
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing empty directory %s: %w", path, err)
		}
		return create(path)
	default:
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
}

// OpenReadOnly opens an existing index for searching only. It gives up after
// ReadOnlyLockTimeout if another process holds the index open for writing.
func OpenReadOnly(path string) (*Engine, error) {
	if !Exists(path) {
		return nil, fmt.Errorf("opening index %s: %w", path, bleve.ErrorIndexPathDoesNotExist)
	}
	bleveIndex, err := bleve.OpenUsing(path, map[string]interface{}{
		"read_only":    true,
		"bolt_timeout": ReadOnlyLockTimeout.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening index %s read-only: %w", path, err)
	}
	return &Engine{path: path, index: bleveIndex}, nil
}

func create(path string) (*Engine, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating parent of %s: %w", path, err)
	}
	bleveIndex, err := bleve.New(path, indexMapping)
	if err != nil {
		return nil, fmt.Errorf("creating index %s: %w", path, err)
	}
	return &Engine{path: path, index: bleveIndex}, nil
}

func clearIndexDir(path string) error {
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(entries) > 0 && !Exists(path) {
		return fmt.Errorf("%w: %s", ErrNotAnIndex, path)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing index %s: %w", path, err)
	}
	return nil
}

func isEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}

// Path returns the on-disk location of the index.
func (e *Engine) Path() string {
	return e.path
}

// Upsert inserts or replaces a single document.
func (e *Engine) Upsert(doc Document) error {
	if err := e.index.Index(doc.Path, toFileDocument(doc)); err != nil {
		return fmt.Errorf("indexing %s: %w", doc.Path, err)
	}
	documentsUpserted.Inc()
	return nil
}

// UpsertBatch inserts or replaces documents in one bleve batch.
func (e *Engine) UpsertBatch(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := e.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.Path, toFileDocument(doc)); err != nil {
			return fmt.Errorf("batching %s: %w", doc.Path, err)
		}
	}
	if err := e.index.Batch(batch); err != nil {
		return fmt.Errorf("writing batch of %d documents: %w", len(docs), err)
	}
	documentsUpserted.Add(float64(len(docs)))
	return nil
}

// Delete removes the document with the given id. Deleting a missing id is not an error.
func (e *Engine) Delete(id string) error {
	if err := e.index.Delete(id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	documentsDeleted.Inc()
	return nil
}

// IDsWithPrefix lists the ids starting with prefix, reading the writer's live view.
func (e *Engine) IDsWithPrefix(prefix string) ([]string, error) {
	prefixQuery := bleve.NewPrefixQuery(prefix)
	prefixQuery.SetField(pathField)

	var ids []string
	for from := 0; ; from += idPageSize {
		request := bleve.NewSearchRequestOptions(prefixQuery, idPageSize, from, false)
		request.SortBy([]string{"_id"})
		result, err := e.index.Search(request)
		if err != nil {
			return nil, fmt.Errorf("listing ids under %s: %w", prefix, err)
		}
		for _, hit := range result.Hits {
			ids = append(ids, hit.ID)
		}
		if len(result.Hits) < idPageSize {
			return ids, nil
		}
	}
}

// DeleteByPrefix removes every document whose id starts with prefix and returns how many were removed.
func (e *Engine) DeleteByPrefix(prefix string) (int, error) {
	ids, err := e.IDsWithPrefix(prefix)
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := e.index.NewBatch()
		for _, id := range ids[start:end] {
			batch.Delete(id)
		}
		if err := e.index.Batch(batch); err != nil {
			return start, fmt.Errorf("deleting documents under %s: %w", prefix, err)
		}
	}
	documentsDeleted.Add(float64(len(ids)))
	return len(ids), nil
}

// DocCount returns the number of documents in the writer's live view.
func (e *Engine) DocCount() (uint64, error) {
	return e.index.DocCount()
}

// snapshot returns the cached reader with e.mu read-locked, creating it on first use.
// Callers must RUnlock when done.
func (e *Engine) snapshot() (bleveindex.IndexReader, error) {
	for {
		e.mu.RLock()
		if e.reader != nil {
			return e.reader, nil
		}
		e.mu.RUnlock()

		e.mu.Lock()
		if e.reader == nil {
			advanced, err := e.index.Advanced()
			if err != nil {
				e.mu.Unlock()
				return nil, fmt.Errorf("accessing index %s: %w", e.path, err)
			}
			reader, err := advanced.Reader()
			if err != nil {
				e.mu.Unlock()
				return nil, fmt.Errorf("opening reader on %s: %w", e.path, err)
			}
			e.reader = reader
		}
		e.mu.Unlock()
	}
}

// Refresh drops the cached snapshot so the next search sees every write made so far.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropReaderLocked()
}

func (e *Engine) dropReaderLocked() error {
	if e.reader == nil {
		return nil
	}
	err := e.reader.Close()
	e.reader = nil
	if err != nil {
		return fmt.Errorf("closing reader on %s: %w", e.path, err)
	}
	return nil
}

// Search runs q against the cached snapshot and returns the total match count and
// up to limit ids in the given order.
func (e *Engine) Search(ctx context.Context, q query.Query, order search.SortOrder, limit int) (SearchResult, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	if limit < 0 {
		limit = 0
	}
	if len(order) == 0 {
		order = search.SortOrder{&search.SortDocID{}}
	}

	reader, err := e.snapshot()
	if err != nil {
		return SearchResult{}, err
	}
	defer e.mu.RUnlock()

	searcher, err := q.Searcher(ctx, reader, e.index.Mapping(), search.SearcherOptions{})
	if err != nil {
		return SearchResult{}, fmt.Errorf("building searcher: %w", err)
	}
	defer searcher.Close()

	topN := collector.NewTopNCollector(limit, 0, order)
	if err := topN.Collect(ctx, searcher, reader); err != nil {
		return SearchResult{}, fmt.Errorf("searching index %s: %w", e.path, err)
	}

	hits := topN.Results()
	paths := make([]string, 0, len(hits))
	for _, hit := range hits {
		paths = append(paths, hit.ID)
	}
	return SearchResult{Total: topN.Total(), Paths: paths}, nil
}

// Query translates a compiled HSL query and runs it.
func (e *Engine) Query(ctx context.Context, q hsl.Query, limit int) (SearchResult, error) {
	bleveQuery, err := Translate(q.Clause)
	if err != nil {
		return SearchResult{}, err
	}
	return e.Search(ctx, bleveQuery, TranslateSort(q.Sort), limit)
}

// Close releases the snapshot and closes the index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	readerErr := e.dropReaderLocked()
	if err := e.index.Close(); err != nil {
		return fmt.Errorf("closing index %s: %w", e.path, err)
	}
	return readerErr
}
