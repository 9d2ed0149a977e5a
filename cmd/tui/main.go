package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"lecture-rag-backend/internal/tui"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	defaultK := 3
	if v := os.Getenv("DEFAULT_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			defaultK = k
		}
	}

	client := tui.NewAPIClient(baseURL)
	model := tui.New(client, defaultK)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
