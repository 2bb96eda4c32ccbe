package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"svinv/internal/config"
	"svinv/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the per-file result cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache entry count and size",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*storage.Cache, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Cache.Dir, logger)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	entries, payloadBytes, err := cache.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Entries: %d\n", entries)
	fmt.Printf("Payload: %d bytes (compressed)\n", payloadBytes)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	if err := cache.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}
