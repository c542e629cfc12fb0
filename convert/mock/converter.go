package mock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/poiesic/ipgest/convert"
	"github.com/poiesic/ipgest/core"
)

// CategoryMock is the category of injected failures.
const CategoryMock = "mock"

// ErrInjected is the cause of failures injected with FailOn.
var ErrInjected = errors.New("injected conversion failure")

// MockConverter is a test double for convert.Converter.
// It allows custom behavior injection via function fields.
type MockConverter struct {
	// ConvertFunc is called by Convert if set.
	// If nil, uses the default doc-number extraction.
	ConvertFunc func(ctx context.Context, f core.Fragment) (*core.Record, error)

	mu        sync.Mutex
	failOn    []string
	callCount atomic.Int64
}

var _ convert.Converter = (*MockConverter)(nil)

// NewMockConverter creates a mock converter with default behavior.
func NewMockConverter() *MockConverter {
	return &MockConverter{}
}

// WithConvertFunc sets a custom conversion function.
func (m *MockConverter) WithConvertFunc(fn func(ctx context.Context, f core.Fragment) (*core.Record, error)) *MockConverter {
	m.ConvertFunc = fn
	return m
}

// FailOn makes Convert fail for fragments containing marker.
func (m *MockConverter) FailOn(marker string) *MockConverter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = append(m.failOn, marker)
	return m
}

// Convert returns a one-row record for the fragment.
func (m *MockConverter) Convert(ctx context.Context, f core.Fragment) (*core.Record, error) {
	m.callCount.Add(1)

	m.mu.Lock()
	failOn := m.failOn
	m.mu.Unlock()
	for _, marker := range failOn {
		if strings.Contains(f.Text, marker) {
			return nil, core.NewConversionError(CategoryMock, f, ErrInjected)
		}
	}

	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, f)
	}

	docNumber := between(f.Text, "<doc-number>", "</doc-number>")
	if docNumber == "" {
		docNumber = f.Source + "#" + strconv.Itoa(f.Ordinal)
	}
	rec := &core.Record{
		ID:        core.IDFromContent(docNumber),
		DocNumber: docNumber,
	}
	rec.AddRow("patent", core.Row{
		"doc_number": docNumber,
		"length":     fmt.Sprint(len(f.Text)),
	})
	return rec, nil
}

// CallCount returns the number of times Convert was called.
func (m *MockConverter) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom behavior.
func (m *MockConverter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount.Store(0)
	m.failOn = nil
	m.ConvertFunc = nil
}

func between(s, openTag, closeTag string) string {
	start := strings.Index(s, openTag)
	if start < 0 {
		return ""
	}
	s = s[start+len(openTag):]
	end := strings.Index(s, closeTag)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(s[:end])
}
