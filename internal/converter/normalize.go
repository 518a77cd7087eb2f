package converter

import (
	"strconv"

	"github.com/nconklindev/sheetpdf/internal/types"
)

const emptyHeader = "__EMPTY"

// usedRange is the smallest rectangle holding every non-empty cell.
type usedRange struct {
	top, bottom int // rows, inclusive
	left, width int // first column and column count
}

func findUsedRange(grid [][]types.Value) (usedRange, bool) {
	rng := usedRange{top: -1, left: -1}
	right := -1

	for r, row := range grid {
		for c, v := range row {
			if v.IsEmpty() {
				continue
			}
			if rng.top == -1 {
				rng.top = r
			}
			rng.bottom = r
			if rng.left == -1 || c < rng.left {
				rng.left = c
			}
			if c > right {
				right = c
			}
		}
	}

	if rng.top == -1 {
		return usedRange{}, false
	}
	rng.width = right - rng.left + 1
	return rng, true
}

func cellAt(grid [][]types.Value, r, c int) types.Value {
	if r >= len(grid) || c >= len(grid[r]) {
		return types.Value{}
	}
	return grid[r][c]
}

// headerNames names every column of the used range from the header row. Blank
// header cells become __EMPTY and repeated names get a numeric suffix, so the
// names are unique and usable as record keys.
func headerNames(grid [][]types.Value, rng usedRange) []string {
	names := make([]string, rng.width)
	seen := make(map[string]int, rng.width)

	for i := range names {
		base := cellAt(grid, rng.top, rng.left+i).String()
		if base == "" {
			base = emptyHeader
		}

		name := base
		if counter, ok := seen[base]; !ok {
			seen[base] = 1
		} else {
			for {
				name = base + "_" + strconv.Itoa(counter)
				counter++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = counter
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

// normalize turns a positional cell grid into a Table. The first used row is the
// header row; blank rows below it are skipped.
func normalize(grid [][]types.Value, opts ExtractOptions) *types.Table {
	table := &types.Table{Headers: []string{}, Rows: []types.RowRecord{}}

	rng, ok := findUsedRange(grid)
	if !ok {
		return table
	}
	names := headerNames(grid, rng)

	for r := rng.top + 1; r <= rng.bottom; r++ {
		record := make(types.RowRecord)
		for i, name := range names {
			if v := cellAt(grid, r, rng.left+i); !v.IsEmpty() {
				record[name] = v
			}
		}
		if len(record) > 0 {
			table.Rows = append(table.Rows, record)
		}
	}

	switch {
	case opts.AllColumns:
		table.Headers = names
	case len(table.Rows) > 0:
		// Columns are the keys of the first record, in sheet order.
		first := table.Rows[0]
		for _, name := range names {
			if _, ok := first[name]; ok {
				table.Headers = append(table.Headers, name)
			}
		}
	}

	return table
}
