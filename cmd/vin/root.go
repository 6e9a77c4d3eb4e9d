package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voiceinbox/voiceinbox/internal/api"
	"github.com/voiceinbox/voiceinbox/internal/store"
	"github.com/voiceinbox/voiceinbox/internal/syncer"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vin",
	Short: "Offline-first voice memo inbox",
	Long: `vin captures voice memos into a local queue and syncs them to a
remote inbox server when connectivity allows.

Every memo is stored locally first. A sync pass uploads unsynced memos
one at a time; a failed upload never blocks the rest of the queue, and
anything left behind is retried on the next pass.

Configuration is read from ~/.voiceinbox/config.yaml and VIN_* environment
variables (e.g. VIN_SERVER_URL).`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.voiceinbox/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "inbox server base URL")
	rootCmd.PersistentFlags().String("db", "", "path to the local queue database")

	_ = viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig loads config file, environment, and defaults in that priority.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(dataDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("anthropic.api_key", "VIN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	viper.SetDefault("server.url", "http://localhost:8000")
	viper.SetDefault("db.path", filepath.Join(dataDir(), "voiceinbox.db"))
	viper.SetDefault("sync.interval", 300)
	viper.SetDefault("watch.dir", filepath.Join(dataDir(), "audio"))
	viper.SetDefault("log.file", filepath.Join(dataDir(), "daemon.log"))
	viper.SetDefault("transcribe.binary", "whisper-cli")
	viper.SetDefault("transcribe.model", filepath.Join(dataDir(), "models", "ggml-base.en.bin"))

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

// dataDir returns the per-user data directory.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voiceinbox"
	}
	return filepath.Join(home, ".voiceinbox")
}

// openStore opens the local queue database from config.
func openStore() *store.Store {
	return store.New(viper.GetString("db.path"), log.New(os.Stderr, "[store] ", log.LstdFlags))
}

// newClient builds the inbox server client from config.
func newClient() *api.Client {
	return api.New(viper.GetString("server.url"), log.New(os.Stderr, "[api] ", log.LstdFlags))
}

// newEngine builds a sync engine over the given store.
func newEngine(st *store.Store) *syncer.Engine {
	return syncer.New(st, newClient(), log.New(os.Stderr, "[sync] ", log.LstdFlags))
}
