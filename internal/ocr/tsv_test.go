package ocr

import (
	"strings"
	"testing"

	"github.com/adverant/kreuzberg-go/internal/types"
)

// TestReconstructTableS6 implements spec scenario S6: three words per
// three rows at left in {100,250,400}, top in {100,150,200}. Expected
// Markdown table: header from row 1, a `---` separator, two data rows.
func TestReconstructTableS6(t *testing.T) {
	var words []types.TSVWord
	tops := []int{100, 150, 200}
	lefts := []int{100, 250, 400}
	for ri, top := range tops {
		for ci, left := range lefts {
			words = append(words, types.TSVWord{
				Level: 5, Left: left, Top: top, Width: 40, Height: 20, Conf: 90,
				Text: cellText(ri, ci),
			})
		}
	}

	table := ReconstructTable(words, 30.0, 20.0, 0.5)
	if table == nil {
		t.Fatal("expected a reconstructed table")
	}
	if len(table.Grid) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Grid))
	}
	for _, row := range table.Grid {
		if len(row) != 3 {
			t.Fatalf("expected 3 columns, got %d", len(row))
		}
	}

	lines := strings.Split(table.Text, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 markdown lines (header, separator, 2 data rows), got %d: %q", len(lines), table.Text)
	}
	if !strings.Contains(lines[1], "---") {
		t.Fatalf("expected a separator row, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[0], "|") || !strings.HasSuffix(lines[0], "|") {
		t.Fatalf("expected pipe-delimited header row, got %q", lines[0])
	}
}

func cellText(row, col int) string {
	return string(rune('A'+row)) + string(rune('0'+col))
}

func TestReconstructTableFiltersLowConfidenceAndBlank(t *testing.T) {
	words := []types.TSVWord{
		{Level: 5, Left: 100, Top: 100, Height: 20, Conf: 90, Text: "kept"},
		{Level: 5, Left: 100, Top: 100, Height: 20, Conf: 5, Text: "dropped-low-conf"},
		{Level: 5, Left: 100, Top: 100, Height: 20, Conf: 90, Text: "  "},
		{Level: 4, Left: 100, Top: 100, Height: 20, Conf: 90, Text: "dropped-wrong-level"},
	}
	table := ReconstructTable(words, 30.0, 20.0, 0.5)
	if table == nil {
		t.Fatal("expected a table with the one surviving word")
	}
	if len(table.Grid) != 1 || len(table.Grid[0]) != 1 {
		t.Fatalf("expected a 1x1 grid, got %v", table.Grid)
	}
	if table.Grid[0][0] != "kept" {
		t.Fatalf("expected 'kept', got %q", table.Grid[0][0])
	}
}

func TestCluster1DGapSplitting(t *testing.T) {
	got := cluster1D([]float64{100, 105, 250, 255, 400}, 20)
	if len(got) != 3 {
		t.Fatalf("expected 3 clusters, got %d: %v", len(got), got)
	}
}

func TestParseTSVRoundTrip(t *testing.T) {
	data := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"5\t1\t1\t1\t1\t1\t100\t100\t40\t20\t95.5\thello\n"
	words, err := ParseTSV([]byte(data))
	if err != nil {
		t.Fatalf("ParseTSV: %v", err)
	}
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0].Text != "hello" || words[0].Conf != 95.5 {
		t.Fatalf("unexpected word: %+v", words[0])
	}
}
