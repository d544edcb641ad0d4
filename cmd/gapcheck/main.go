// File path: cmd/gapcheck/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/levnertech/gapcheck/internal/api"
	"github.com/levnertech/gapcheck/internal/clause"
	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/llm"
	"github.com/levnertech/gapcheck/internal/session"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("gapcheck: .env file not loaded", "error", err)
	} else {
		logger.Info("gapcheck: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	dbPath := flag.String("db", defaultDBPath(), "path to the session SQLite database")
	flag.Parse()

	logger.Info("gapcheck: startup initiated", "addr", *addr, "db", *dbPath)

	clauses, err := clause.Load()
	if err != nil {
		logger.Error("gapcheck: clause fixture load failed", "error", err)
		fmt.Println("clause fixture error:", err)
		os.Exit(1)
	}
	logger.Info("gapcheck: clause graphs loaded", "clauses", len(clauses.ClauseIDs()))

	sessions, err := session.Open(*dbPath)
	if err != nil {
		logger.Error("gapcheck: session store open failed", "error", err)
		fmt.Println("session store error:", err)
		os.Exit(1)
	}
	defer sessions.Close()

	provider := llm.NewProvider()
	logger.Info("gapcheck: llm provider ready", "provider", provider.Name())

	server, err := api.NewServer(clauses, sessions, provider)
	if err != nil {
		logger.Error("gapcheck: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("gapcheck: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("gapcheck: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("gapcheck: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultDBPath() string {
	return filepath.Join("data", "sessions.db")
}
