package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/ludus/internal/config"
	"github.com/jwebster45206/ludus/internal/services"
	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/pkg/engine"
	"github.com/jwebster45206/ludus/pkg/eventlog"
	"github.com/jwebster45206/ludus/pkg/participant"
	"github.com/jwebster45206/ludus/pkg/werewolf"
)

// localEcho prints the announcements the human player is allowed to see,
// so offline play works without a websocket in the middle.
type localEcho struct {
	name string
}

var _ eventlog.Sink = (*localEcho)(nil)

func (e *localEcho) EventRecorded(entry eventlog.Entry) {
	if entry.Public() {
		fmt.Println(entry.Message)
		return
	}
	for _, o := range entry.VisibleTo {
		if o == e.name {
			fmt.Println("(private) " + entry.Message)
			return
		}
	}
}

// playLocal prompts for the table and runs a full game in the terminal:
// the named player on stdin, automated players for the rest of the
// seats, no API server involved.
func playLocal() error {
	info := session.DefaultGames(werewolf.Config{}).List()[0]
	stdin := bufio.NewReader(os.Stdin)

	fmt.Print("Your player name: ")
	line, err := stdin.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return errors.New("player name is required")
	}

	fmt.Printf("Table size (%d-%d) [%d]: ", info.MinPlayers, info.MaxPlayers, info.MinPlayers)
	sizeLine, err := stdin.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read table size: %w", err)
	}
	size := info.MinPlayers
	if s := strings.TrimSpace(sizeLine); s != "" {
		size, err = strconv.Atoi(s)
		if err != nil || size < info.MinPlayers || size > info.MaxPlayers {
			return errors.New("invalid table size")
		}
	}

	return runLocal(name, size)
}

func runLocal(name string, size int) error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	llm, err := newLLMService(cfg, logger)
	if err != nil {
		return err
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llm.InitModel(initCtx, cfg.ModelName); err != nil {
		return fmt.Errorf("failed to initialize LLM model: %w", err)
	}

	wcfg := werewolf.Config{}
	if cfg.PromptsFile != "" {
		prompts, err := werewolf.LoadPrompts(cfg.PromptsFile)
		if err != nil {
			return fmt.Errorf("failed to load prompts file: %w", err)
		}
		wcfg.Prompts = prompts
	}

	def, err := session.DefaultGames(wcfg).Lookup(werewolf.GameID)
	if err != nil {
		return err
	}

	names := []string{name}
	players := []*engine.Player{{Name: name, Alive: true, Human: true}}
	for _, bot := range botNames {
		if len(players) == size {
			break
		}
		if strings.EqualFold(bot, name) {
			continue
		}
		names = append(names, bot)
		players = append(players, &engine.Player{Name: bot, Alive: true})
	}

	events := eventlog.New(names)
	events.SetSink(&localEcho{name: name})

	match := def.New()
	eng := engine.New(match.Rules(), players, events, logger)

	bind := func(p *engine.Player) error {
		if p.Human {
			p.Participant = participant.NewConsole(p.Name, os.Stdin, os.Stdout)
			return nil
		}
		standing, oneTime := match.Reminders()
		p.Participant = participant.NewAutomated(p.Name, match.Persona(p), llm, events, logger,
			participant.WithReminders(standing...),
			participant.WithOneTimeReminders(oneTime...))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := match.Setup(ctx, eng, bind); err != nil {
		return fmt.Errorf("game setup failed: %w", err)
	}

	if err := eng.Run(ctx); err != nil {
		if errors.Is(err, participant.ErrCancelled) {
			fmt.Println(match.StoppedMessage())
			return nil
		}
		return err
	}
	return nil
}

func newLLMService(cfg *config.Config, logger *slog.Logger) (services.LLMService, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger), nil
	case "venice":
		if cfg.VeniceAPIKey == "" {
			return nil, errors.New("VENICE_API_KEY is required for the venice provider")
		}
		return services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName), nil
	case "ollama":
		return services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
