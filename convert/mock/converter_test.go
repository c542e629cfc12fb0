package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/ipgest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockConverter_Default(t *testing.T) {
	conv := NewMockConverter()
	ctx := context.Background()

	rec, err := conv.Convert(ctx, core.Fragment{Source: "a.xml", Text: "<doc-number> 07000001 </doc-number>"})
	require.NoError(t, err)
	assert.Equal(t, "07000001", rec.DocNumber)
	assert.Equal(t, core.IDFromContent("07000001"), rec.ID)
	require.Len(t, rec.Rows("patent"), 1)

	rec, err = conv.Convert(ctx, core.Fragment{Source: "a.xml", Ordinal: 3, Text: "<x/>"})
	require.NoError(t, err)
	assert.Equal(t, "a.xml#3", rec.DocNumber)
	assert.Equal(t, 2, conv.CallCount())
}

func TestMockConverter_FailOn(t *testing.T) {
	conv := NewMockConverter().FailOn("BROKEN")

	_, err := conv.Convert(context.Background(), core.Fragment{Source: "b.xml", Ordinal: 1, Text: "xx BROKEN xx"})
	require.Error(t, err)
	var cerr *core.ConversionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CategoryMock, cerr.Category)
	assert.Equal(t, 1, cerr.Ordinal)
	assert.ErrorIs(t, err, ErrInjected)
}

func TestMockConverter_CustomFunc(t *testing.T) {
	conv := NewMockConverter().WithConvertFunc(func(ctx context.Context, f core.Fragment) (*core.Record, error) {
		return &core.Record{DocNumber: "custom"}, nil
	})

	rec, err := conv.Convert(context.Background(), core.Fragment{})
	require.NoError(t, err)
	assert.Equal(t, "custom", rec.DocNumber)

	conv.Reset()
	assert.Zero(t, conv.CallCount())
	assert.Nil(t, conv.ConvertFunc)
}

func TestMockConverter_Concurrent(t *testing.T) {
	conv := NewMockConverter()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = conv.Convert(context.Background(), core.Fragment{Ordinal: i})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, conv.CallCount())
}
