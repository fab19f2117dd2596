package ocr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adverant/kreuzberg-go/internal/types"
)

// ParseTSV parses Tesseract's `-l ... tsv` output into TSVWord rows,
// matching the column layout Tesseract emits: level, page_num, block_num,
// par_num, line_num, word_num, left, top, width, height, conf, text.
func ParseTSV(data []byte) ([]types.TSVWord, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 {
		return nil, nil
	}
	words := make([]types.TSVWord, 0, len(lines))
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue // header row, or trailing blank line
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		w, err := parseTSVRow(fields)
		if err != nil {
			return nil, fmt.Errorf("parsing tsv row %d: %w", i, err)
		}
		words = append(words, w)
	}
	return words, nil
}

func parseTSVRow(fields []string) (types.TSVWord, error) {
	var w types.TSVWord
	ints := []*int{&w.Level, &w.Page, &w.Block, &w.Par, &w.Line, &w.Word, &w.Left, &w.Top, &w.Width, &w.Height}
	for i, dst := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return w, err
		}
		*dst = v
	}
	conf, err := strconv.ParseFloat(strings.TrimSpace(fields[10]), 64)
	if err != nil {
		return w, err
	}
	w.Conf = conf
	w.Text = fields[11]
	return w, nil
}

// cluster1D implements spec §4.7.2 step 2/3's fallback clustering:
// "iterate sorted unique values, start a new cluster whenever the gap to
// the previous exceeds the threshold; each cluster's position is the
// median of its members." Used for both column detection (on `left`)
// and row detection (on `top + height/2`), a hand-rolled single-linkage
// sorted-gap clustering since no library in the example pack offers 1-D
// agglomerative clustering (SPEC_FULL §4 Go note).
func cluster1D(values []float64, threshold float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var clusters [][]float64
	current := []float64{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-current[len(current)-1] > threshold {
			clusters = append(clusters, current)
			current = []float64{sorted[i]}
		} else {
			current = append(current, sorted[i])
		}
	}
	clusters = append(clusters, current)

	centers := make([]float64, len(clusters))
	for i, c := range clusters {
		centers[i] = median(c)
	}
	return centers
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ReconstructTable implements spec §4.7.2's TSV-to-table algorithm.
// Returns nil if, after filtering, too little survives to form a table
// (fewer than one row or one column).
func ReconstructTable(words []types.TSVWord, minConfidence float64, columnThreshold float64, rowThresholdRatio float64) *types.TableData {
	if minConfidence <= 0 {
		minConfidence = 30.0
	}
	if columnThreshold <= 0 {
		columnThreshold = 20.0
	}
	if rowThresholdRatio <= 0 {
		rowThresholdRatio = 0.5
	}

	// Step 1: filter.
	var filtered []types.TSVWord
	for _, w := range words {
		if w.Level != 5 {
			continue
		}
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		if w.Conf < minConfidence {
			continue
		}
		filtered = append(filtered, w)
	}
	if len(filtered) == 0 {
		return nil
	}

	// Step 2: column detection on `left`.
	lefts := make([]float64, len(filtered))
	var heightSum float64
	for i, w := range filtered {
		lefts[i] = float64(w.Left)
		heightSum += float64(w.Height)
	}
	columns := cluster1D(lefts, columnThreshold)
	if len(columns) == 0 {
		return nil
	}

	// Step 3: row detection on `top + height/2`.
	meanHeight := heightSum / float64(len(filtered))
	rowThreshold := meanHeight * rowThresholdRatio
	centers := make([]float64, len(filtered))
	for i, w := range filtered {
		centers[i] = float64(w.Top) + float64(w.Height)/2
	}
	rows := cluster1D(centers, rowThreshold)
	if len(rows) == 0 {
		return nil
	}

	// Step 4: cell placement — closest column and closest row by
	// absolute distance; append with a space if the cell already has text.
	grid := make([][]string, len(rows))
	for i := range grid {
		grid[i] = make([]string, len(columns))
	}
	for _, w := range filtered {
		ci := closestIndex(columns, float64(w.Left))
		ri := closestIndex(rows, float64(w.Top)+float64(w.Height)/2)
		if grid[ri][ci] != "" {
			grid[ri][ci] += " " + w.Text
		} else {
			grid[ri][ci] = w.Text
		}
	}

	// Step 5: drop fully empty rows/columns.
	grid = dropEmptyRows(grid)
	grid = dropEmptyColumns(grid)
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil
	}

	return &types.TableData{
		Text: gridToMarkdown(grid),
		Grid: grid,
	}
}

func closestIndex(anchors []float64, v float64) int {
	best := 0
	bestDist := absF(anchors[0] - v)
	for i := 1; i < len(anchors); i++ {
		d := absF(anchors[i] - v)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func dropEmptyRows(grid [][]string) [][]string {
	var out [][]string
	for _, row := range grid {
		empty := true
		for _, cell := range row {
			if cell != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}

func dropEmptyColumns(grid [][]string) [][]string {
	if len(grid) == 0 {
		return grid
	}
	numCols := len(grid[0])
	keep := make([]bool, numCols)
	for _, row := range grid {
		for c, cell := range row {
			if cell != "" {
				keep[c] = true
			}
		}
	}
	out := make([][]string, len(grid))
	for r, row := range grid {
		for c, cell := range row {
			if keep[c] {
				out[r] = append(out[r], cell)
			}
		}
	}
	return out
}

// gridToMarkdown renders a grid as a Markdown table: header row,
// `---` separator, pipe-delimited data rows (spec §4.7.2 step 5).
func gridToMarkdown(grid [][]string) string {
	if len(grid) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(grid[0])
	sep := make([]string, len(grid[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range grid[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}
