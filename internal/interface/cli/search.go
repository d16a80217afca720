package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/query"
)

var (
	searchProject  string
	searchAnimal   string
	searchSessions string
	searchWhere    []string
	searchFile     string
	searchFileMode string
	searchSince    string
	searchUntil    string
	searchColumns  []string
	searchFormat   string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query indexed sessions",
	Long: `Query the catalogued sessions along the tree axes (project, animal,
session), metadata predicates, and file name patterns.

Project and animal take regular expressions matched anywhere in the name.
--session takes an exact comma-separated set of session names. --where
predicates are ANDed: key==value (equals), key*=value (contains),
key~=value (regex). --file matches file basenames exactly, or use
--file-mode glob/regex. Without --file each matching session prints one
row; with it, one row per matching file.

Examples:
  sessidx search --project NPX --where Recording==npx_lin
  sessidx search --animal 'WT00.*' --where Experimenter*=smith
  sessidx search --file '*.bin' --file-mode glob --columns DateTime
  sessidx search --since "last monday" --format csv`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchProject, "project", "", "Project name pattern (regex)")
	searchCmd.Flags().StringVar(&searchAnimal, "animal", "", "Animal name pattern (regex)")
	searchCmd.Flags().StringVar(&searchSessions, "session", "", "Comma-separated session names (exact)")
	searchCmd.Flags().StringArrayVar(&searchWhere, "where", nil, "Metadata predicate: key==v, key*=v, or key~=v (repeatable)")
	searchCmd.Flags().StringVar(&searchFile, "file", "", "File name pattern")
	searchCmd.Flags().StringVar(&searchFileMode, "file-mode", "exact", "File match mode: exact, glob, or regex")
	searchCmd.Flags().StringVar(&searchSince, "since", "", "Only sessions on or after this date (natural language ok)")
	searchCmd.Flags().StringVar(&searchUntil, "until", "", "Only sessions on or before this date")
	searchCmd.Flags().StringSliceVar(&searchColumns, "columns", nil, "Extra metadata keys to include as columns")
	searchCmd.Flags().StringVar(&searchFormat, "format", "table", "Output format: table, csv, or tsv")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum rows to print (0 = all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := buildQuery()
	if err != nil {
		return err
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	h, err := loadHandle(cat)
	if err != nil {
		return err
	}

	matches, err := query.Evaluate(h.Snapshot(), *q)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("No matching sessions")
		return nil
	}

	table := query.Project(matches, searchColumns)
	if searchLimit > 0 && len(table.Rows) > searchLimit {
		table.Rows = table.Rows[:searchLimit]
	}

	switch searchFormat {
	case "csv":
		return table.WriteDelimited(os.Stdout, ',')
	case "tsv":
		return table.WriteDelimited(os.Stdout, '\t')
	case "table":
		printTable(table)
		return nil
	default:
		return fmt.Errorf("unknown format %q", searchFormat)
	}
}

// buildQuery translates the flags into a query value. Pattern validation
// happens at compile time inside Evaluate, so invalid regexes surface as a
// query error naming the flag-shaped field rather than a panic mid-walk.
func buildQuery() (*query.Query, error) {
	q := &query.Query{
		ProjectPattern: searchProject,
		AnimalPattern:  searchAnimal,
	}
	q.SessionSelector = searchSessions
	for _, w := range searchWhere {
		p, err := parsePredicate(w)
		if err != nil {
			return nil, err
		}
		q.Predicates = append(q.Predicates, p)
	}
	if searchFile != "" {
		mode, err := parseFileMode(searchFileMode)
		if err != nil {
			return nil, err
		}
		q.FileMatcher = &query.FileMatcher{Mode: mode, Pattern: searchFile}
	}
	if searchSince != "" {
		t, err := parseDate(searchSince)
		if err != nil {
			return nil, fmt.Errorf("--since: %w", err)
		}
		q.Since = &t
	}
	if searchUntil != "" {
		t, err := parseDate(searchUntil)
		if err != nil {
			return nil, fmt.Errorf("--until: %w", err)
		}
		q.Until = &t
	}
	return q, nil
}

func parsePredicate(expr string) (query.Predicate, error) {
	for _, c := range []struct {
		sep string
		op  query.Op
	}{
		{"==", query.OpEquals},
		{"*=", query.OpContains},
		{"~=", query.OpRegex},
	} {
		if i := strings.Index(expr, c.sep); i > 0 {
			return query.Predicate{
				Key:   strings.TrimSpace(expr[:i]),
				Op:    c.op,
				Value: expr[i+len(c.sep):],
			}, nil
		}
	}
	return query.Predicate{}, fmt.Errorf("invalid predicate %q: want key==value, key*=value, or key~=value", expr)
}

func parseFileMode(mode string) (query.FileMode, error) {
	switch mode {
	case "exact":
		return query.FileExact, nil
	case "glob":
		return query.FileGlob, nil
	case "regex":
		return query.FileRegex, nil
	default:
		return "", fmt.Errorf("unknown file mode %q: want exact, glob, or regex", mode)
	}
}

// parseDate accepts plain dates and natural language like "last monday".
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, time.Now())
	if err == nil && r != nil {
		return r.Time, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

func printTable(t *query.Table) {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	fmt.Println(headerStyle.Render(strings.TrimRight(joinPadded(t.Header, widths), " ")))
	for _, row := range t.Rows {
		fmt.Println(strings.TrimRight(joinPadded(row, widths), " "))
	}
	fmt.Printf("\n%d row(s)\n", len(t.Rows))
}

func joinPadded(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], c)
	}
	return strings.Join(parts, "  ")
}
