package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/voiceinbox/voiceinbox/internal/export"
	"github.com/voiceinbox/voiceinbox/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the queue to a JSONL file",
	Long: `Write every memo in the local queue to a JSONL file, one JSON
object per line. The file can be imported on another machine with
'vin import'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		result, err := export.Export(st, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Export failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		fmt.Printf("%s Exported %d memos to %s\n", ui.RenderPass("✓"), result.Exported, args[0])
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import memos from a JSONL file",
	Long: `Read memos from a JSONL file and add them to the local queue.

Memos whose IDs already exist locally are skipped, so importing the same
file twice is safe. Imported memos are marked unsynced and uploaded on
the next sync pass.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		result, err := export.Import(st, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Import failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		fmt.Printf("%s Imported %d memos (%d skipped)\n", ui.RenderPass("✓"),
			result.Imported, result.Skipped)
		for _, e := range result.Errors {
			fmt.Printf("   %s %s\n", ui.RenderWarn("⚠"), e)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
