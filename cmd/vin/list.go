package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued memos",
	Long: `List memos in the local queue, newest first.

Each line shows a pending marker, the memo ID, the creation time, the
tag (if any), and a truncated transcript.`,
	Run: func(cmd *cobra.Command, args []string) {
		pendingOnly, _ := cmd.Flags().GetBool("pending")

		st := openStore()
		defer st.Close()

		recs, err := st.ListAll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list memos: %v\n", err)
			os.Exit(1)
		}

		shown := 0
		for _, rec := range recs {
			if pendingOnly && !rec.Pending {
				continue
			}
			printRecording(rec)
			shown++
		}

		if shown == 0 {
			fmt.Println("No memos in the queue.")
		}
	},
}

// printRecording renders one queue line.
func printRecording(rec *record.Recording) {
	marker := ui.RenderPass("✓")
	if rec.Pending {
		marker = ui.RenderWarn("●")
	}

	line := fmt.Sprintf("%s %s  %s", marker, shortID(rec.ID),
		rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	if rec.Tag != "" {
		line += "  " + ui.RenderAccent("["+rec.Tag+"]")
	}
	fmt.Printf("%s  %s\n", line, rec.Summary(60))
}

// shortID abbreviates an id for display. Server-side ids are opaque and
// may be arbitrarily short.
func shortID(id string) string {
	runes := []rune(id)
	if len(runes) <= 8 {
		return id
	}
	return string(runes[:8])
}

func init() {
	listCmd.Flags().Bool("pending", false, "show only pending memos")
	rootCmd.AddCommand(listCmd)
}
