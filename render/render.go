// Package render turns snapshots into JSON, HTML tables and Markdown.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/gridsnap/snapshot"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// JSON writes the rows as an array of objects. Object keys follow column
// order, which encoding a map would not preserve.
func JSON(w io.Writer, snap *snapshot.Snapshot) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range snap.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, c := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(c.Label)
			if err != nil {
				return fmt.Errorf("render: json: %w", err)
			}
			v, err := json.Marshal(c.Text)
			if err != nil {
				return fmt.Errorf("render: json: %w", err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("render: json: %w", err)
	}
	return nil
}

// HTML returns the snapshot as a <table> with a header row.
func HTML(snap *snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range snap.Headers {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, line := range snap.Values().Rows {
		b.WriteString("<tr>")
		for _, v := range line {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(v))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}

// Markdown returns the snapshot as a Markdown table.
func Markdown(snap *snapshot.Snapshot) (string, error) {
	md, err := mdConverter.ConvertString(HTML(snap))
	if err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return md, nil
}
