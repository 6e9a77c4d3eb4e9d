package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voiceinbox/voiceinbox/internal/classify"
	"github.com/voiceinbox/voiceinbox/internal/daemon"
	"github.com/voiceinbox/voiceinbox/internal/dashboard"
	"github.com/voiceinbox/voiceinbox/internal/syncer"
	"github.com/voiceinbox/voiceinbox/internal/transcribe"
	"github.com/voiceinbox/voiceinbox/internal/ui"
	"gopkg.in/natefinch/lumberjack.v2"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the capture and sync daemon (foreground)",
	Long: `Run the voice inbox daemon in the foreground.

The daemon:
  1. Runs a sync pass at startup and then on a fixed interval
  2. Watches the audio drop directory for new recordings
  3. Transcribes each recording (local whisper first, server fallback)
  4. Suggests a tag and queues the memo for upload

Pass --dashboard to also start a WebSocket server that broadcasts sync
status and queue statistics to connected clients.

Example usage:
  vin daemon                      # capture + periodic sync
  vin daemon --dashboard          # also serve ws://localhost:8090/ws
  vin daemon --no-watch           # periodic sync only`,
	Run: func(cmd *cobra.Command, args []string) {
		noWatch, _ := cmd.Flags().GetBool("no-watch")
		withDashboard, _ := cmd.Flags().GetBool("dashboard")
		dashboardPort, _ := cmd.Flags().GetInt("dashboard-port")

		// Daemon output goes to stderr and a rotated log file.
		logOut := io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   viper.GetString("log.file"),
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		})

		st := openStore()
		defer st.Close()

		engine := syncer.New(st, newClient(), log.New(logOut, "[sync] ", log.LstdFlags))

		// Local whisper first, server transcription as fallback.
		var transcribers []transcribe.Transcriber
		if local := transcribe.NewLocal(viper.GetString("transcribe.binary"),
			viper.GetString("transcribe.model")); local != nil {
			transcribers = append(transcribers, local)
		}
		transcribers = append(transcribers, transcribe.NewRemote(newClient()))
		chain := transcribe.NewChain(transcribers...)

		tagger := classify.New(viper.GetString("anthropic.api_key"),
			log.New(logOut, "[classify] ", log.LstdFlags))

		watchDir := viper.GetString("watch.dir")
		if noWatch {
			watchDir = ""
		}

		config := &daemon.Config{
			SyncInterval: time.Duration(viper.GetInt("sync.interval")) * time.Second,
			WatchDir:     watchDir,
			Logger:       log.New(logOut, "[daemon] ", log.LstdFlags),
		}

		d, err := daemon.New(st, engine, chain, tagger, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if withDashboard {
			server := dashboard.NewServer(&dashboard.Config{
				Port:   dashboardPort,
				Logger: log.New(logOut, "[dashboard] ", log.LstdFlags),
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
				os.Exit(1)
			}
			defer func() {
				if err := server.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "Error during dashboard shutdown: %v\n", err)
				}
			}()

			handler := dashboard.NewHandler(server, st, log.New(logOut, "[dashboard] ", log.LstdFlags))
			go handler.Watch(ctx, engine)

			fmt.Printf("   Dashboard: ws://localhost:%d/ws\n", dashboardPort)
		}

		fmt.Printf("%s Starting voice inbox daemon...\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Server: %s\n", viper.GetString("server.url"))
		fmt.Printf("   Queue: %s\n", viper.GetString("db.path"))
		if watchDir != "" {
			fmt.Printf("   Watching: %s\n", watchDir)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	daemonCmd.Flags().Bool("no-watch", false, "disable audio capture, only schedule sync passes")
	daemonCmd.Flags().Bool("dashboard", false, "serve a WebSocket status dashboard")
	daemonCmd.Flags().Int("dashboard-port", 8090, "dashboard port")
	rootCmd.AddCommand(daemonCmd)
}
