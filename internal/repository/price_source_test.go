package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPrices_MixedLayoutsSorted(t *testing.T) {
	in := "Date,Price\n" +
		"21-May-87,18.45\n" +
		"20-May-87,18.63\n" +
		"\"Apr 22, 2020\",13.77\n" +
		"bad-date,1\n" +
		"22-May-87,n/a\n"

	series, report, err := ReadPrices(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, 2, report.Dropped)
	assert.Equal(t, 3, report.Rows)

	assert.Equal(t, time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.Equal(t, 18.63, series.Points[0].Price)
	assert.Equal(t, time.Date(2020, 4, 22, 0, 0, 0, 0, time.UTC), series.Points[2].Date)
}

func TestReadPrices_Warnings(t *testing.T) {
	in := "date,price\n2020-01-01,-5\n2020-01-01,250\n2020-01-03,60\n"
	_, report, err := ReadPrices(strings.NewReader(in))
	require.NoError(t, err)
	joined := strings.Join(report.Warnings, "; ")
	assert.Contains(t, joined, "1 negative prices")
	assert.Contains(t, joined, "1 prices above 200 USD")
	assert.Contains(t, joined, "1 duplicate dates")
	assert.Contains(t, joined, "covers only 2 days")
}

func TestReadPrices_MissingColumns(t *testing.T) {
	_, _, err := ReadPrices(strings.NewReader("Day,Close\n2020-01-01,1\n"))
	assert.ErrorContains(t, err, "expected Date and Price")
}

func TestCSVPriceSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffDate,Price\n2020-01-02,66.25\n2020-01-01,65.00\n"), 0o644))

	series, err := NewCSVPriceSource(path, nil).LoadPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, series.Source)
	assert.Equal(t, []float64{65.00, 66.25}, series.Prices())

	_, err = NewCSVPriceSource(filepath.Join(dir, "missing.csv"), nil).LoadPrices(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
