package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melitools/sheet-sync/pkg/reconcile"
)

type fakeStore struct {
	docs []Document
	err  error

	gotASINs []string
}

func (f *fakeStore) FindByASINs(_ context.Context, asins []string) ([]Document, error) {
	f.gotASINs = asins
	return f.docs, f.err
}

func fptr(v float64) *float64 { return &v }

func newTestEnricher(store Store) *Enricher {
	return NewEnricher(store, EnricherConfig{}, zerolog.Nop())
}

func TestEnrich_ProjectsFullDocument(t *testing.T) {
	store := &fakeStore{docs: []Document{{
		ASIN:                    "B00TEST01",
		CatalogID:               "MLM-CAT-1",
		SellerID:                "seller-9",
		ReferencePrice:          fptr(100),
		FirstListingPrice:       fptr(95.5),
		AveragePrice30d:         fptr(110),
		TotalVisits30d:          fptr(340),
		EstimatedProfit:         fptr(12.75),
		PriceHistory:            []float64{100, 105, 110},
		SoldQuantity:            fptr(8),
		SaleCommission:          fptr(0.1),
		ShippingCost:            fptr(10),
		CompetitorAvgPrice90d:   fptr(120),
		CompetitorOutOfStock90d: fptr(3),
	}}}

	rows, err := newTestEnricher(store).Enrich(context.Background(), []string{"B00TEST01"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// (100 + 10 + 70) / (1 - 0.1) = 200.00
	assert.Equal(t, reconcile.Row{
		"B00TEST01", "MLM-CAT-1",
		100.0, 95.5, 110.0, 340.0, 12.75,
		3, "seller-9", 8.0,
		200.0,
		120.0, 3.0,
	}, rows[0])

	assert.Equal(t, []string{"B00TEST01"}, store.gotASINs)
}

func TestEnrich_SparseDocumentBlanksOptionalCells(t *testing.T) {
	store := &fakeStore{docs: []Document{{ASIN: "B00TEST02"}}}

	rows, err := newTestEnricher(store).Enrich(context.Background(), []string{"B00TEST02"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, reconcile.Row{
		"B00TEST02", "",
		"", "", "", "", "",
		0, "", "",
		"",
		"", "",
	}, rows[0])
}

func TestEnrich_ZeroSuppressedCells(t *testing.T) {
	store := &fakeStore{docs: []Document{{
		ASIN:                    "B00TEST03",
		SoldQuantity:            fptr(0),
		CompetitorAvgPrice90d:   fptr(0),
		CompetitorOutOfStock90d: fptr(0),
	}}}

	rows, err := newTestEnricher(store).Enrich(context.Background(), []string{"B00TEST03"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "", row[9], "zero sold quantity renders blank")
	assert.Equal(t, "", row[11], "zero competitor average renders blank")
	assert.Equal(t, 0.0, row[12], "zero competitor out-of-stock count is kept")
}

func TestMinimumViablePrice(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want any
	}{
		{
			name: "reference shipping commission",
			doc: Document{
				ReferencePrice: fptr(100),
				ShippingCost:   fptr(10),
				SaleCommission: fptr(0.1),
			},
			want: 200.0,
		},
		{
			name: "missing shipping treated as zero",
			doc: Document{
				ReferencePrice: fptr(100),
				SaleCommission: fptr(0.15),
			},
			// (100 + 70) / 0.85 = 200.00
			want: 200.0,
		},
		{
			name: "rounded to two places",
			doc: Document{
				ReferencePrice: fptr(101),
				SaleCommission: fptr(0.15),
			},
			// (101 + 70) / 0.85 = 201.176...
			want: 201.18,
		},
		{
			name: "missing reference price",
			doc:  Document{SaleCommission: fptr(0.1)},
			want: "",
		},
		{
			name: "zero reference price",
			doc: Document{
				ReferencePrice: fptr(0),
				SaleCommission: fptr(0.1),
			},
			want: "",
		},
		{
			name: "missing commission",
			doc:  Document{ReferencePrice: fptr(100)},
			want: "",
		},
		{
			name: "commission of one would divide by zero",
			doc: Document{
				ReferencePrice: fptr(100),
				SaleCommission: fptr(1),
			},
			want: "",
		},
	}

	e := newTestEnricher(&fakeStore{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.minimumViablePrice(tt.doc))
		})
	}
}

func TestEnrich_CustomFixedFee(t *testing.T) {
	store := &fakeStore{docs: []Document{{
		ASIN:           "B00TEST04",
		ReferencePrice: fptr(100),
		SaleCommission: fptr(0.5),
	}}}
	e := NewEnricher(store, EnricherConfig{ListingFixedFee: 50}, zerolog.Nop())

	rows, err := e.Enrich(context.Background(), []string{"B00TEST04"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// (100 + 0 + 50) / 0.5 = 300.00
	assert.Equal(t, 300.0, rows[0][10])
}

func TestEnrich_NoDocuments(t *testing.T) {
	rows, err := newTestEnricher(&fakeStore{}).Enrich(context.Background(), []string{"B00NOPE"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEnrich_StoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("connection refused")
	_, err := newTestEnricher(&fakeStore{err: wantErr}).Enrich(context.Background(), []string{"B1"})
	assert.ErrorIs(t, err, wantErr)
}
