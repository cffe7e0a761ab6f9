package cli

import (
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/moby/term"
	"github.com/samber/lo"
)

const defaultWidth = 80

// terminalWidth reports the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	fd, isTerminal := term.GetFdInfo(w)
	if !isTerminal {
		return defaultWidth, false
	}
	size, err := term.GetWinsize(fd)
	if err != nil || size.Width == 0 {
		return defaultWidth, true
	}
	return int(size.Width), true
}

// renderMarkdown renders content for terminal display. Anything that is not
// a terminal gets the content unchanged.
func renderMarkdown(w io.Writer, content string) string {
	width, isTerminal := terminalWidth(w)
	if !isTerminal {
		return content
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.Faint)
)

// suggest returns up to three names closest to name.
func suggest(name string, names []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(name, names)
	if len(ranks) == 0 {
		// Fall back to the reverse match so typos with extra letters still hit.
		ranks = lo.Filter(lo.Map(names, func(n string, i int) fuzzy.Rank {
			return fuzzy.Rank{Source: name, Target: n, Distance: fuzzy.LevenshteinDistance(name, n), OriginalIndex: i}
		}), func(r fuzzy.Rank, _ int) bool {
			return r.Distance <= 3
		})
	}
	sort.Sort(ranks)
	return lo.Map(lo.Slice(ranks, 0, 3), func(r fuzzy.Rank, _ int) string {
		return r.Target
	})
}
