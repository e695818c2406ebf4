package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// indexedDocument is the shape stored in Bleve.
type indexedDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var dictionaryFields = []string{"title", "content"}

// BleveIndex implements TermIndex and TermDictionary using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused; remove the directory after changing the mapping.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex returns an index that lives only in memory.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer lowercases without stemming, so suggestions are real words.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = false
	for _, f := range dictionaryFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	im.DefaultMapping = docMapping
	return im
}

func docKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Index adds or replaces the text of document id.
func (b *BleveIndex) Index(ctx context.Context, id int64, title, text string) error {
	if err := b.index.Index(docKey(id), indexedDocument{Title: title, Content: text}); err != nil {
		return fmt.Errorf("failed to index document %d: %w", id, err)
	}
	return nil
}

// Delete removes document id from the index.
func (b *BleveIndex) Delete(ctx context.Context, id int64) error {
	return b.index.Delete(docKey(id))
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// GetAllTerms returns the unique terms of the title and content dictionaries.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	var terms []string
	seen := make(map[string]struct{})
	for _, field := range dictionaryFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; ok {
				continue
			}
			seen[entry.Term] = struct{}{}
			terms = append(terms, entry.Term)
		}
		_ = dict.Close()
	}
	return terms, nil
}

// GetTermFrequency returns the number of documents containing term in either field.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	term = strings.ToLower(term)
	queries := make([]blevequery.Query, 0, len(dictionaryFields))
	for _, field := range dictionaryFields {
		tq := bleve.NewTermQuery(term)
		tq.SetField(field)
		queries = append(queries, tq)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = 0
	res, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to count term %q: %w", term, err)
	}
	return int(res.Total), nil
}
