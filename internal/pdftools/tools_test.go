package pdftools

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfword/internal/pdftest"
)

func TestParseRanges(t *testing.T) {
	tests := []struct {
		in      string
		want    []Range
		wantErr bool
	}{
		{"1-3,5,7-9", []Range{{1, 3}, {5, 5}, {7, 9}}, false},
		{" 2 - 4 , 6 ", []Range{{2, 4}, {6, 6}}, false},
		{"1,,2", []Range{{1, 1}, {2, 2}}, false},
		{"", nil, true},
		{"0-2", nil, true},
		{"5-3", nil, true},
		{"a-b", nil, true},
		{"1-", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRanges(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeString(t *testing.T) {
	assert.Equal(t, "4", Range{4, 4}.String())
	assert.Equal(t, "2-7", Range{2, 7}.String())
}

func fixture(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	ps := make([]pdftest.Page, pages)
	for i := range ps {
		ps[i] = pdftest.Letter()
		ps[i].Text = fmt.Sprintf("page %d", i+1)
	}
	return pdftest.WriteFile(t, dir, name, ps...)
}

func TestToImages(t *testing.T) {
	dir := t.TempDir()
	in := fixture(t, dir, "in.pdf", 2)
	out := filepath.Join(dir, "images")

	msg, err := ToImages(context.Background(), in, out, 36)
	require.NoError(t, err)
	assert.Equal(t, "Successfully converted 2 pages to images in "+out, msg)

	for _, name := range []string{"page_1.png", "page_2.png"} {
		f, err := os.Open(filepath.Join(out, name))
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 306, cfg.Width)
		assert.Equal(t, 396, cfg.Height)
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := fixture(t, dir, "a.pdf", 2)
	b := fixture(t, dir, "b.pdf", 3)
	out := filepath.Join(dir, "merged", "all.pdf")

	msg, err := Merge(context.Background(), []string{a, b}, out)
	require.NoError(t, err)
	assert.Equal(t, "Successfully merged 2 files into "+out, msg)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestMergeMissingInput(t *testing.T) {
	dir := t.TempDir()
	a := fixture(t, dir, "a.pdf", 1)
	_, err := Merge(context.Background(), []string{a, filepath.Join(dir, "nope.pdf")}, filepath.Join(dir, "out.pdf"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "out.pdf"))

	_, err = Merge(context.Background(), nil, filepath.Join(dir, "out.pdf"))
	require.Error(t, err)
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	in := fixture(t, dir, "in.pdf", 6)
	out := filepath.Join(dir, "parts")

	msg, err := Split(context.Background(), in, []Range{{1, 2}, {3, 3}, {4, 6}}, out)
	require.NoError(t, err)
	assert.Equal(t, "Successfully split PDF into 3 files in "+out, msg)

	for i, want := range []int{2, 1, 3} {
		n, err := PageCount(filepath.Join(out, fmt.Sprintf("split_%d.pdf", i+1)))
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestSplitRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	in := fixture(t, dir, "in.pdf", 3)
	out := filepath.Join(dir, "parts")

	_, err := Split(context.Background(), in, []Range{{1, 2}, {3, 4}}, out)
	require.Error(t, err)
	assert.NoDirExists(t, out)
}
