package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/ludus/internal/session"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

// botNames seats automated players when the human doesn't fill the table.
var botNames = []string{
	"Marlowe", "Petra", "Silas", "Ines", "Bruno",
	"Odette", "Caspar", "Livia", "Hugo", "Tamsin", "Felix",
}

func main() {
	localMode := flag.Bool("local", false, "play offline in the terminal against automated players")
	flag.Parse()

	if *localMode {
		if err := playLocal(); err != nil {
			fmt.Fprintf(os.Stderr, "Local game failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	games, err := listGames(client, cfg.APIBaseURL)
	if err != nil || len(games) == 0 {
		fmt.Fprintf(os.Stderr, "Failed to list games: %v\n", err)
		os.Exit(1)
	}

	stdin := bufio.NewReader(os.Stdin)

	fmt.Println("Available Games:")
	for i, g := range games {
		fmt.Printf("  %d - %s (%d-%d players)\n", i+1, g.Name, g.MinPlayers, g.MaxPlayers)
	}
	fmt.Print("\nSelect a game by number: ")

	var choice int
	if _, err := fmt.Fscanf(stdin, "%d\n", &choice); err != nil || choice < 1 || choice > len(games) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}
	game := games[choice-1]

	fmt.Print("Your player name: ")
	name, err := stdin.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read name: %v\n", err)
		os.Exit(1)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Fprintf(os.Stderr, "Player name is required\n")
		os.Exit(1)
	}

	fmt.Printf("Table size (%d-%d) [%d]: ", game.MinPlayers, game.MaxPlayers, game.MinPlayers)
	sizeLine, err := stdin.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read table size: %v\n", err)
		os.Exit(1)
	}
	size := game.MinPlayers
	if s := strings.TrimSpace(sizeLine); s != "" {
		size, err = strconv.Atoi(s)
		if err != nil || size < game.MinPlayers || size > game.MaxPlayers {
			fmt.Fprintf(os.Stderr, "Invalid table size\n")
			os.Exit(1)
		}
	}

	players := []session.PlayerSpec{{Name: name, Human: true}}
	for _, bot := range botNames {
		if len(players) == size {
			break
		}
		if strings.EqualFold(bot, name) {
			continue
		}
		players = append(players, session.PlayerSpec{Name: bot})
	}

	summary, err := createSession(client, cfg.APIBaseURL, session.StartRequest{
		GameID:  game.ID,
		Players: players,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	conn, err := dialSession(cfg.APIBaseURL, summary.ID, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to join session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, summary, name, conn),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
