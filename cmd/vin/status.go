package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voiceinbox/voiceinbox/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local queue status",
	Long: `Display the state of the local queue database.

Shows:
  - Database location and size
  - Number of memos and how many still await upload
  - Configured inbox server`,
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := viper.GetString("db.path")

		info, err := os.Stat(dbPath)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Queue not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'vin add' to create it\n\n")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking database: %v\n", err)
			os.Exit(1)
		}

		st := openStore()
		defer st.Close()

		total, unsynced, err := st.Counts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading queue counts: %v\n", err)
			os.Exit(1)
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s Voice Inbox Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Database: %s\n", dbPath)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Memos: %d\n", total)
		fmt.Printf("Awaiting upload: %d\n", unsynced)
		fmt.Printf("Server: %s\n", viper.GetString("server.url"))
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
