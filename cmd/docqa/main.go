package main

import (
	"fmt"
	"log/slog"
	"os"

	"docqa/internal/config"
	"docqa/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	recursive   bool
	promptsFile string

	cfg     config.Config
	prompts *config.Prompts
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Answer questions about a folder of PDF documents",
	Long: `docqa loads every PDF from the data directory, splits the text into chunks,
embeds them into an in-memory vector index and answers questions with an LLM
using the most relevant chunks as context.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "directory with PDF files (DATA_DIR)")
	rootCmd.PersistentFlags().BoolVar(&recursive, "recursive", false, "also read PDFs from subdirectories (DATA_RECURSIVE)")
	rootCmd.PersistentFlags().StringVar(&promptsFile, "prompts", "", "YAML file with system instructions (PROMPTS_FILE)")
}

// setup exports flags into the environment, loads .env and parses the config.
func setup(cmd *cobra.Command, _ []string) error {
	// Флаги имеют приоритет над .env
	if cmd.Flags().Changed("data") {
		os.Setenv("DATA_DIR", dataDir)
	}
	if cmd.Flags().Changed("recursive") {
		os.Setenv("DATA_RECURSIVE", fmt.Sprint(recursive))
	}
	if cmd.Flags().Changed("prompts") {
		os.Setenv("PROMPTS_FILE", promptsFile)
	}
	if cmd.Flags().Changed("addr") {
		os.Setenv("LISTEN_ADDR", listenAddr)
	}

	// Загружаем .env (опционально)
	_ = godotenv.Load()

	if err := config.Init(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	p, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return err
	}
	prompts = p

	log.Debug("config loaded", "data_dir", cfg.DataDir, "provider", cfg.Provider, "chunk_method", cfg.ChunkMethod)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
