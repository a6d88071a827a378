package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pagelens/internal/session"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight SOURCE",
	Short: "Show which page elements an answer text points back to",
	Args:  cobra.ExactArgs(1),
	RunE:  runHighlight,
}

var (
	highlightText string
	highlightYAML bool
)

func init() {
	highlightCmd.Flags().StringVarP(&highlightText, "text", "t", "", "Answer text to match against the page (required)")
	highlightCmd.Flags().BoolVar(&highlightYAML, "yaml", false, "Print YAML instead of JSON")
	_ = highlightCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(highlightCmd)
}

func runHighlight(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	doc, err := loadSource(cmd.Context(), a.Config, args[0], sourceOptions{ReaderMode: a.Config.ReaderMode})
	if err != nil {
		return err
	}

	deps := a.SessionDeps()
	deps.Dwell = time.Hour
	sess := session.New(session.NewID(), doc, deps)
	defer sess.Close()

	resp, err := sess.Dispatch(cmd.Context(), session.Command{Kind: session.KindHighlightSource, Text: highlightText})
	if err != nil {
		return err
	}
	hr := resp.(session.HighlightResponse)
	if len(hr.Matches) == 0 {
		return fmt.Errorf("no matches for %q", highlightText)
	}
	return writeResults(cmd.OutOrStdout(), hr.Matches, highlightYAML)
}
