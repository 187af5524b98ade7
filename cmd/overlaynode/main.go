package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
)

// Set via -ldflags at build time:
//
//	go build -ldflags "-X main.version=0.1.0 -X main.commit=$(git rev-parse --short HEAD) -X main.buildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)" -o overlaynode ./cmd/overlaynode
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var osExit = os.Exit

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if len(os.Args) < 2 {
		printUsage()
		osExit(1)
	}

	switch os.Args[1] {
	case "run":
		runNode(os.Args[2:])
	case "whoami":
		runWhoami(os.Args[2:])
	case "version", "--version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		osExit(1)
	}
}

func printVersion() {
	fmt.Printf("overlaynode %s (%s) built %s\n", version, commit, buildDate)
	fmt.Printf("Go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func printUsage() {
	fmt.Println("Usage: overlaynode <command> [options]")
	fmt.Println()
	fmt.Println("  run [--config path]   Start the node: HyParView overlay topics + metrics endpoint")
	fmt.Println("  whoami [--config path] Show this node's derived peer ID")
	fmt.Println("  version               Show version information")
	fmt.Println()
	fmt.Println("Without --config, overlaynode looks for ./overlaynode.yaml")
}
