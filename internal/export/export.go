// Package export renders the history list as downloadable documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Format describes one export document type.
type Format struct {
	Name        string
	Filename    string
	ContentType string
	Write       func(w io.Writer, records []weather.Record) error
}

var formats = map[string]Format{
	"json": {Name: "json", Filename: "weather.json", ContentType: "application/json", Write: JSON},
	"csv":  {Name: "csv", Filename: "weather.csv", ContentType: "text/csv", Write: CSV},
	"md":   {Name: "md", Filename: "weather.md", ContentType: "text/markdown", Write: Markdown},
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, bool) {
	f, ok := formats[strings.ToLower(name)]
	return f, ok
}

var header = []string{"Location", "Temperature", "Description", "Start Date", "End Date"}

type jsonRecord struct {
	Location    string `json:"location"`
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// JSON writes records as an array of objects. An empty list is "[]".
func JSON(w io.Writer, records []weather.Record) error {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, jsonRecord{
			Location:    r.Location,
			Temperature: r.Temperature,
			Description: r.Description,
			StartDate:   r.StartDate.Format(weather.DateLayout),
			EndDate:     r.EndDate.Format(weather.DateLayout),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// CSV writes a header row followed by one row per record.
func CSV(w io.Writer, records []weather.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Markdown writes a GitHub-flavored table.
func Markdown(w io.Writer, records []weather.Record) error {
	var b strings.Builder
	writeMarkdownRow(&b, header)
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, r := range records {
		writeMarkdownRow(&b, row(r))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		fmt.Fprintf(b, " %s |", markdownEscaper.Replace(c))
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func row(r weather.Record) []string {
	return []string{
		r.Location,
		strconv.Itoa(r.Temperature),
		r.Description,
		r.StartDate.Format(weather.DateLayout),
		r.EndDate.Format(weather.DateLayout),
	}
}
