package controllers

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseHTML(t *testing.T, body io.Reader) *html.Node {
	t.Helper()

	doc, err := html.Parse(body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func findByID(node *html.Node, id string) *html.Node {
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Key == "id" && attr.Val == id {
				return node
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func findAll(node *html.Node, tag string) []*html.Node {
	var found []*html.Node
	if node.Type == html.ElementNode && node.Data == tag {
		found = append(found, node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		found = append(found, findAll(child, tag)...)
	}
	return found
}

func attrValue(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return sb.String()
}

// tableCells returns the text of each data row in the table, one slice per row.
func tableCells(table *html.Node) [][]string {
	var rows [][]string
	for _, tr := range findAll(table, "tr") {
		cells := findAll(tr, "td")
		if len(cells) == 0 {
			continue
		}
		row := make([]string, 0, len(cells))
		for _, cell := range cells {
			row = append(row, strings.TrimSpace(textContent(cell)))
		}
		rows = append(rows, row)
	}
	return rows
}
