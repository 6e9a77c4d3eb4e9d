package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voiceinbox/voiceinbox/internal/classify"
	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/syncer"
	"github.com/voiceinbox/voiceinbox/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Queue a new memo",
	Long: `Add a memo to the local queue.

The memo is stored locally and marked unsynced; run 'vin sync' (or the
daemon) to push it to the inbox server. Pass --push to attempt an
immediate sync after queueing.

Examples:
  vin add "buy milk on the way home"
  vin add "standup notes" --audio ~/recordings/standup.m4a --tag work
  vin add "call the dentist" --push`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		audio, _ := cmd.Flags().GetString("audio")
		tag, _ := cmd.Flags().GetString("tag")
		autoTag, _ := cmd.Flags().GetBool("auto-tag")
		push, _ := cmd.Flags().GetBool("push")

		text := strings.Join(args, " ")
		rec := record.New(text, audio)

		if tag != "" {
			rec.Tag = tag
		} else if autoTag {
			classifier := classify.New(viper.GetString("anthropic.api_key"),
				log.New(os.Stderr, "[classify] ", log.LstdFlags))
			if suggested, err := classifier.Suggest(cmd.Context(), text); err == nil && suggested != "" {
				rec.Tag = suggested
			}
		}

		st := openStore()
		defer st.Close()

		if err := st.Insert(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to queue memo: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Queued %s\n", ui.RenderPass("✓"), rec.ID)
		if rec.Tag != "" {
			fmt.Printf("   Tag: %s\n", rec.Tag)
		}

		if push {
			engine := newEngine(st)
			if err := engine.Synchronize(context.Background()); err != nil && !errors.Is(err, syncer.ErrBusy) {
				fmt.Fprintf(os.Stderr, "%s Queued locally but sync failed: %v\n", ui.RenderWarn("⚠"), err)
				return
			}
			fmt.Printf("%s %s\n", ui.RenderPass("✓"), engine.Status().Detail)
		}
	},
}

func init() {
	addCmd.Flags().String("audio", "", "path to the source audio file")
	addCmd.Flags().String("tag", "", "label for the memo")
	addCmd.Flags().Bool("auto-tag", false, "suggest a tag automatically")
	addCmd.Flags().Bool("push", false, "sync immediately after queueing")
	rootCmd.AddCommand(addCmd)
}
