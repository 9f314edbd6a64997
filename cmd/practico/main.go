package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"practico/internal/config"
)

var Version = "dev"

var configPath string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:     "practico",
		Short:   "Practico - Bocconi exam preparation backend",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to YAML config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
