package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/identify"
	"github.com/pastefind/pastefind/pkg/logger"
	"github.com/pastefind/pastefind/pkg/pathutil"
	"github.com/pastefind/pastefind/pkg/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	log *logrus.Entry

	// Global options
	configPath string

	// Serve command options
	port int

	// Identify command options
	audioFile string
)

func init() {
	log = logger.WithName("cli")
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "pastefind",
		Short: "Music track identification service",
		Long: `pastefind - Identify the music playing in a pasted link.

It downloads the audio from a media URL (YouTube, TikTok, Instagram, ...),
runs it through recognition providers in priority order, and prints the
matched track with links to Spotify, YouTube and Apple Music.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and MCP server",
		Run:   runServe,
	}

	serveCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides configuration)")

	var identifyCmd = &cobra.Command{
		Use:   "identify [url]",
		Short: "Identify a track from a URL or a local audio file",
		Args:  cobra.MaximumNArgs(1),
		Run:   runIdentify,
	}

	identifyCmd.Flags().StringVar(&audioFile, "file", "", "Identify a local audio file instead of a URL")

	rootCmd.AddCommand(serveCmd, identifyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Configure(cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if port != 0 {
		cfg.Server.Port = port
	}

	log.WithFields(logrus.Fields{
		"command": "serve",
		"port":    cfg.Server.Port,
	}).Info("Executing command")

	srv, err := server.New(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to build server")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		log.WithError(err).Error("Server failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runIdentify(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	req, err := buildRequest(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	svc, err := identify.NewService(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to build identification service")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp, identErr := svc.Identify(context.Background(), req)

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if identErr != nil {
		os.Exit(1)
	}
}

func buildRequest(args []string) (*models.Request, error) {
	if audioFile != "" {
		path, err := pathutil.Expand(audioFile)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		return &models.Request{Upload: &models.Upload{Bytes: data, Extension: ext}}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a URL argument or --file is required")
	}
	return &models.Request{SourceURL: args[0]}, nil
}
