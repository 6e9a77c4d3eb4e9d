package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/voiceinbox/voiceinbox/internal/syncer"
	"github.com/voiceinbox/voiceinbox/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push unsynced memos to the inbox server",
	Long: `Run one sync pass against the inbox server.

Each unsynced memo is uploaded independently; a rejected or unreachable
upload is logged and retried on a later pass, and never blocks the rest
of the queue. The pass succeeds even when individual items fail - check
'vin list' to see what is still pending upload.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		engine := newEngine(st)

		start := time.Now()
		if err := engine.Synchronize(context.Background()); err != nil {
			if errors.Is(err, syncer.ErrBusy) {
				fmt.Fprintf(os.Stderr, "%s A sync pass is already running\n", ui.RenderWarn("⚠"))
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "%s Sync failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		status := engine.Status()
		fmt.Printf("%s %s in %v\n", ui.RenderPass("✓"), status.Detail,
			time.Since(start).Round(time.Millisecond))

		total, unsynced, err := st.Counts()
		if err == nil {
			fmt.Printf("   Queue: %d memos, %d awaiting upload\n", total, unsynced)
		}
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Show the server-side inbox",
	Long: `Fetch the current item list from the inbox server and display it.

This is a read-only view of the remote state; nothing is written to the
local queue.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		engine := newEngine(st)
		items, err := engine.FetchFromServer(context.Background())
		if err != nil {
			if errors.Is(err, syncer.ErrBusy) {
				fmt.Fprintf(os.Stderr, "%s A sync pass is already running\n", ui.RenderWarn("⚠"))
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "%s Fetch failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		if len(items) == 0 {
			fmt.Println("Server inbox is empty.")
			return
		}

		fmt.Printf("%s Server inbox (%d items)\n\n", ui.RenderAccent("📥"), len(items))
		for _, item := range items {
			printRecording(item)
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(fetchCmd)
}
