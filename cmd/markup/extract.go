package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdf-markup/internal/extract"
)

func extractCmd() *cobra.Command {
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Dump the positioned text layer of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cliLogger(verbose)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ex := extract.NewExtractor(extract.DefaultConfig(), logger)
			doc, err := ex.Extract(cmd.Context(), data)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(fragmentDump(doc))
			}
			if doc.Empty() {
				fmt.Fprintln(cmd.ErrOrStderr(), "no extractable text (scanned or image-only document)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.Text())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit fragments with positions as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log extraction steps to stderr")
	return cmd
}

type fragmentView struct {
	Page   int     `json:"page"`
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Font   string  `json:"font,omitempty"`
	Size   float64 `json:"size,omitempty"`
}

type documentView struct {
	Stats     extract.Stats  `json:"stats"`
	Fragments []fragmentView `json:"fragments"`
}

func fragmentDump(doc *extract.Document) documentView {
	view := documentView{Stats: doc.Stats, Fragments: []fragmentView{}}
	for _, f := range doc.Fragments() {
		view.Fragments = append(view.Fragments, fragmentView{
			Page:   f.Page,
			Text:   f.Text,
			X:      f.Box.X0,
			Y:      f.Box.Y0,
			Width:  f.Box.Width(),
			Height: f.Box.Height(),
			Font:   f.Font,
			Size:   f.Size,
		})
	}
	return view
}
