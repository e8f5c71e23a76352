package testutils

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/papercomputeco/advisor/pkg/vector"
)

// ErrMockUnavailable is returned by MockVectorDriver when Fail is set.
var ErrMockUnavailable = errors.New("mock vector store unavailable")

// MockVectorDriver is an in-memory vector driver. Query ranks stored
// documents by cosine distance unless Results is set.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents []vector.Document

	// Results, when non-nil, is returned by Query instead of a real search.
	Results []vector.QueryResult

	// Fail makes every call return ErrMockUnavailable.
	Fail bool

	// Queries counts Query calls.
	Queries int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrMockUnavailable
	}
	for _, d := range docs {
		m.documents = slices.DeleteFunc(m.documents, func(e vector.Document) bool { return e.ID == d.ID })
		m.documents = append(m.documents, d)
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries++
	if m.Fail {
		return nil, ErrMockUnavailable
	}

	if m.Results != nil {
		if len(m.Results) < topK {
			return m.Results, nil
		}
		return m.Results[:topK], nil
	}

	results := make([]vector.QueryResult, 0, len(m.documents))
	for _, d := range m.documents {
		results = append(results, vector.QueryResult{Document: d, Score: CosineDistance(embedding, d.Embedding)})
	}
	slices.SortStableFunc(results, func(a, b vector.QueryResult) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return nil, ErrMockUnavailable
	}
	var out []vector.Document
	for _, d := range m.documents {
		if slices.Contains(ids, d.ID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrMockUnavailable
	}
	m.documents = slices.DeleteFunc(m.documents, func(d vector.Document) bool { return slices.Contains(ids, d.ID) })
	return nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return 0, ErrMockUnavailable
	}
	return len(m.documents), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Documents returns a copy of the stored documents.
func (m *MockVectorDriver) Documents() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.documents)
}

// CosineDistance returns 1 - cosine similarity of a and b.
func CosineDistance(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}
