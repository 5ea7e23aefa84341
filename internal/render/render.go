// Package render prints ranked species predictions as a table or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rbright/warbler/internal/audio"
	"github.com/rbright/warbler/internal/session"
)

const (
	barCells = 20
	barFull  = "█"
	barEmpty = "░"
)

// NoSpecies is printed when the classifier returns zero predictions.
const NoSpecies = "no species detected"

// Ranked is one prediction in JSON output.
type Ranked struct {
	Rank       int     `json:"rank"`
	Species    string  `json:"bird"`
	Confidence float64 `json:"confidence"`
	Percent    int     `json:"percent"`
}

// Report is the JSON document emitted with --json.
type Report struct {
	SessionID   string   `json:"session_id,omitempty"`
	Source      string   `json:"source,omitempty"`
	Predictions []Ranked `json:"predictions"`
}

// Table writes predictions in classifier order as a rounded table.
func Table(w io.Writer, predictions []session.Prediction) error {
	if len(predictions) == 0 {
		_, err := fmt.Fprintln(w, NoSpecies)
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Species", "Confidence", "%"})
	for i, p := range predictions {
		tw.AppendRow(table.Row{
			fmt.Sprintf("#%d", i+1),
			p.Species,
			Bar(p.Confidence),
			fmt.Sprintf("%d%%", p.Percent()),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

// JSON writes predictions as an indented Report.
func JSON(w io.Writer, sessionID, source string, predictions []session.Prediction) error {
	report := Report{
		SessionID:   sessionID,
		Source:      source,
		Predictions: make([]Ranked, 0, len(predictions)),
	}
	for i, p := range predictions {
		report.Predictions = append(report.Predictions, Ranked{
			Rank:       i + 1,
			Species:    p.Species,
			Confidence: p.Confidence,
			Percent:    p.Percent(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Bar draws confidence as a fixed-width gauge. Out-of-range values are clamped.
func Bar(confidence float64) string {
	if math.IsNaN(confidence) {
		confidence = 0
	}
	confidence = math.Max(0, math.Min(1, confidence))
	filled := int(math.Floor(confidence*barCells + 0.5))
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, barCells-filled)
}

// Devices lists capture sources; the server default is starred.
func Devices(w io.Writer, devices []audio.Device) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"", "Source", "Description", "Kind", "State", "Available", "Muted"})
	for _, d := range devices {
		mark := ""
		if d.Default {
			mark = "*"
		}
		kind := "microphone"
		if d.Monitor {
			kind = "monitor"
		}
		tw.AppendRow(table.Row{mark, d.ID, d.Description, kind, d.State, yesNo(d.Available), yesNo(d.Muted)})
	}

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
