package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/voiceinbox/voiceinbox/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a memo's tag or pending state",
	Long: `Update the mutable fields of a queued memo.

Any update marks the memo unsynced again, so the change is pushed to the
inbox server on the next sync pass.

Examples:
  vin update 4f1c9b2a --tag work
  vin update 4f1c9b2a --done
  vin update 4f1c9b2a --clear-tag`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		var tag *string
		var pending *bool

		if cmd.Flags().Changed("tag") {
			v, _ := cmd.Flags().GetString("tag")
			tag = &v
		}
		if clear, _ := cmd.Flags().GetBool("clear-tag"); clear {
			empty := ""
			tag = &empty
		}
		if done, _ := cmd.Flags().GetBool("done"); done {
			v := false
			pending = &v
		}
		if reopen, _ := cmd.Flags().GetBool("pending"); reopen {
			v := true
			pending = &v
		}

		if tag == nil && pending == nil {
			fmt.Fprintf(os.Stderr, "Error: nothing to update (use --tag, --clear-tag, --done, or --pending)\n")
			os.Exit(1)
		}

		st := openStore()
		defer st.Close()

		if err := st.Update(id, tag, pending); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to update memo: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Updated %s (will re-sync)\n", ui.RenderPass("✓"), id)
	},
}

func init() {
	updateCmd.Flags().String("tag", "", "set the memo's tag")
	updateCmd.Flags().Bool("clear-tag", false, "remove the memo's tag")
	updateCmd.Flags().Bool("done", false, "mark the memo as handled")
	updateCmd.Flags().Bool("pending", false, "mark the memo as pending again")
	rootCmd.AddCommand(updateCmd)
}
