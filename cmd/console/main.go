package main

import (
	"flag"
	"fmt"
	"os"

	"trackbot-be/internal/client"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

// console is an interactive terminal client for a running trackbot server.
func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", envOr("TRACKBOT_URL", "http://localhost:3000/api"), "API base URL")
	token := flag.String("token", os.Getenv("TRACKBOT_TOKEN"), "bearer token")
	user := flag.String("user", "", "sign a token for this user id with JWT_SECRET")
	flag.Parse()

	if *token == "" && *user != "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			fmt.Fprintln(os.Stderr, "-user needs JWT_SECRET")
			os.Exit(2)
		}
		signed, err := serverutils.SignToken(secret, *user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
			os.Exit(1)
		}
		*token = signed
	}

	app := tui.NewApp(client.New(*baseURL, *token))
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running console: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
