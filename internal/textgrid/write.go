package textgrid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Write renders tg in Praat's long text layout.
func Write(w io.Writer, tg *TextGrid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, `File type = "ooTextFile"`)
	fmt.Fprintln(bw, `Object class = "TextGrid"`)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "xmin = %s \n", formatNumber(tg.Start))
	fmt.Fprintf(bw, "xmax = %s \n", formatNumber(tg.End))
	if len(tg.Tiers) == 0 {
		fmt.Fprintln(bw, "tiers? <absent> ")
		return bw.Flush()
	}
	fmt.Fprintln(bw, "tiers? <exists> ")
	fmt.Fprintf(bw, "size = %d \n", len(tg.Tiers))
	fmt.Fprintln(bw, "item []: ")
	for i, tier := range tg.Tiers {
		fmt.Fprintf(bw, "    item [%d]:\n", i+1)
		fmt.Fprintf(bw, "        class = %s \n", quote(tier.Class))
		fmt.Fprintf(bw, "        name = %s \n", quote(tier.Name))
		fmt.Fprintf(bw, "        xmin = %s \n", formatNumber(tier.Start))
		fmt.Fprintf(bw, "        xmax = %s \n", formatNumber(tier.End))
		switch tier.Class {
		case ClassText:
			fmt.Fprintf(bw, "        points: size = %d \n", len(tier.Points))
			for j, pt := range tier.Points {
				fmt.Fprintf(bw, "        points [%d]:\n", j+1)
				fmt.Fprintf(bw, "            number = %s \n", formatNumber(pt.Time))
				fmt.Fprintf(bw, "            mark = %s \n", quote(pt.Mark))
			}
		default:
			fmt.Fprintf(bw, "        intervals: size = %d \n", len(tier.Intervals))
			for j, iv := range tier.Intervals {
				fmt.Fprintf(bw, "        intervals [%d]:\n", j+1)
				fmt.Fprintf(bw, "            xmin = %s \n", formatNumber(iv.Start))
				fmt.Fprintf(bw, "            xmax = %s \n", formatNumber(iv.End))
				fmt.Fprintf(bw, "            text = %s \n", quote(iv.Label))
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes tg to path in the long text layout.
func WriteFile(path string, tg *TextGrid) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create textgrid: %w", err)
	}
	if err := Write(file, tg); err != nil {
		file.Close()
		return fmt.Errorf("write textgrid: %w", err)
	}
	return file.Close()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
