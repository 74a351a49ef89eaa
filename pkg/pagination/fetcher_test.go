package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSource simulates an upstream holding n items.
func pagedSource(n int, calls *[][2]int) RequestFunc[int] {
	return func(_ context.Context, offset, limit int) ([]int, error) {
		*calls = append(*calls, [2]int{offset, limit})
		if offset >= n {
			return nil, nil
		}
		end := offset + limit
		if end > n {
			end = n
		}
		items := make([]int, 0, end-offset)
		for i := offset; i < end; i++ {
			items = append(items, i)
		}
		return items, nil
	}
}

func TestFetchAll_DrainsAllPagesInOrder(t *testing.T) {
	var calls [][2]int
	items, err := FetchAll(context.Background(), "orders", pagedSource(125, &calls), 50)
	require.NoError(t, err)

	assert.Len(t, items, 125)
	assert.Equal(t, [][2]int{{0, 50}, {50, 50}, {100, 50}}, calls)

	for i, item := range items {
		require.Equal(t, i, item, "items must keep source order")
	}
}

func TestFetchAll_EmptySource(t *testing.T) {
	var calls [][2]int
	items, err := FetchAll(context.Background(), "orders", pagedSource(0, &calls), 50)
	require.NoError(t, err)

	assert.Empty(t, items)
	assert.Len(t, calls, 1)
}

func TestFetchAll_SingleShortPage(t *testing.T) {
	var calls [][2]int
	items, err := FetchAll(context.Background(), "orders", pagedSource(7, &calls), 50)
	require.NoError(t, err)

	assert.Len(t, items, 7)
	assert.Len(t, calls, 1)
}

func TestFetchAll_AbortsOnPageError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	calls := 0
	fn := func(_ context.Context, offset, limit int) ([]int, error) {
		calls++
		if offset >= 50 {
			return nil, wantErr
		}
		items := make([]int, limit)
		return items, nil
	}

	items, err := FetchAll(context.Background(), "orders", fn, 50)
	assert.ErrorIs(t, err, wantErr)
	assert.Nil(t, items, "no partial results on failure")
	assert.Equal(t, 2, calls)
}

func TestFetchAll_DefaultPageSize(t *testing.T) {
	fn := func(_ context.Context, offset, limit int) ([]int, error) {
		if limit != DefaultPageSize {
			return nil, fmt.Errorf("unexpected limit %d", limit)
		}
		return nil, nil
	}

	_, err := FetchAll(context.Background(), "orders", fn, 0)
	assert.NoError(t, err)
}
