// vin is the voice inbox CLI: capture, queue, and sync voice memos.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
