package fbref

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/riskibarqy/fbref-report/internal/domain/matchreport"
)

// ExtractTablesFromHTML parses a document and returns every table it holds,
// including tables the site ships inside HTML comments.
func ExtractTablesFromHTML(content string) []matchreport.Table {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}
	return ExtractTables(doc.Selection)
}

// ExtractTables returns the tables in sel (sel itself included when it is a
// table) followed by the tables found in comments below sel. Tables without
// header text or without rows are dropped.
func ExtractTables(sel *goquery.Selection) []matchreport.Table {
	out := make([]matchreport.Table, 0)
	collect := func(tables *goquery.Selection) {
		tables.Each(func(_ int, table *goquery.Selection) {
			if parsed, ok := parseTable(table); ok {
				out = append(out, parsed)
			}
		})
	}

	collect(tablesIn(sel))
	for _, doc := range commentDocuments(sel) {
		collect(doc.Find("table"))
	}
	return out
}

func tablesIn(sel *goquery.Selection) *goquery.Selection {
	return sel.Filter("table").AddSelection(sel.Find("table"))
}

func parseTable(table *goquery.Selection) (matchreport.Table, bool) {
	headers := headerRow(table)
	if len(headers) == 0 {
		return matchreport.Table{}, false
	}

	rows := make([][]string, 0)
	maxCols := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cleanText(cell.Text()))
		})
		if len(row) > maxCols {
			maxCols = len(row)
		}
		rows = append(rows, row)
	})
	if len(rows) == 0 {
		return matchreport.Table{}, false
	}

	if len(headers) > maxCols {
		headers = headers[:maxCols]
	}
	for i := len(headers); i < maxCols; i++ {
		headers = append(headers, "Unnamed_"+strconv.Itoa(i))
	}
	for i, row := range rows {
		for len(row) < maxCols {
			row = append(row, "")
		}
		rows[i] = row
	}

	return matchreport.Table{Columns: uniqueColumns(headers), Rows: rows}, true
}

// headerRow reads the non-empty th texts of the last thead row that has any.
// Earlier rows are grouping headers spanning several columns.
func headerRow(table *goquery.Selection) []string {
	var headers []string
	table.Find("thead").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row := make([]string, 0)
		tr.Find("th").Each(func(_ int, th *goquery.Selection) {
			if text := cleanText(th.Text()); text != "" {
				row = append(row, text)
			}
		})
		if len(row) > 0 {
			headers = row
		}
	})
	if headers == nil {
		// thead without tr wrappers
		table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
			if text := cleanText(th.Text()); text != "" {
				headers = append(headers, text)
			}
		})
	}
	return headers
}

func uniqueColumns(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, name := range headers {
		if _, dup := seen[name]; !dup {
			seen[name] = 0
			out[i] = name
			continue
		}
		candidate := name
		for {
			seen[name]++
			candidate = name + "." + strconv.Itoa(seen[name])
			if _, taken := seen[candidate]; !taken {
				break
			}
		}
		seen[candidate] = 0
		out[i] = candidate
	}
	return out
}

// commentDocuments re-parses every comment below sel that carries table markup.
func commentDocuments(sel *goquery.Selection) []*goquery.Document {
	var bodies []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode {
			if strings.Contains(strings.ToLower(n.Data), "<table") {
				bodies = append(bodies, n.Data)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}

	docs := make([]*goquery.Document, 0, len(bodies))
	for _, body := range bodies {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
