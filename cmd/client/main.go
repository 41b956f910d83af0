package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wirechat-client: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "wirechat-client",
		Short:         "Terminal client for a wirechat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := log.New("info")
			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			if cfg.Username == "" {
				return fmt.Errorf("username required (--user flag or %s)", path)
			}

			logger := log.New(cfg.LogLevel)
			application := app.New(cfg, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			go renderLoop(application.Engine())
			go inputLoop(cancel, application.Engine())

			fmt.Printf("Joining %s as %s. Type /help for commands.\n", cfg.Room, cfg.Username)
			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&overrides.ServerURL, "server", "", "WebSocket server URL")
	cmd.Flags().StringVar(&overrides.Username, "user", "", "username to join with")
	cmd.Flags().StringVar(&overrides.Room, "room", "", "room to join")
	cmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

var (
	systemStyle  = color.New(color.FgYellow)
	privateStyle = color.New(color.FgMagenta)
	senderStyle  = color.New(color.FgCyan, color.Bold)
)

func renderLoop(eng *core.Engine) {
	for n := range eng.Notifications() {
		printMessage(n.Message)
	}
}

func printMessage(msg core.Message) {
	stamp := msg.Timestamp.Format("15:04:05")
	switch {
	case msg.Kind == core.MessageKindSystem || msg.Sender == nil:
		systemStyle.Printf("%s * %s\n", stamp, msg.Content)
	case msg.IsPrivate:
		privateStyle.Printf("%s [pm] %s: %s\n", stamp, msg.Sender.Username, msg.Content)
	default:
		fmt.Printf("%s [%s] %s: %s\n", stamp, msg.Room, senderStyle.Sprint(msg.Sender.Username), msg.Content)
	}
}

func inputLoop(cancel context.CancelFunc, eng *core.Engine) {
	defer cancel()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(eng, line); quit {
				return
			}
			continue
		}

		eng.Keystroke()
		eng.SendMessage(line)
	}
}

// runCommand handles one slash command and reports whether to quit.
func runCommand(eng *core.Engine, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/switch":
		if len(fields) < 2 {
			fmt.Println("usage: /switch <room>")
			return false
		}
		eng.SwitchRoom(fields[1])
	case "/pm":
		if len(fields) < 2 {
			fmt.Println("usage: /pm <username>")
			return false
		}
		peer, ok := findPeer(eng, fields[1])
		if !ok {
			fmt.Printf("no such user: %s\n", fields[1])
			return false
		}
		eng.OpenPrivate(peer.ID)
		privateStyle.Printf("-- private chat with %s (/close to leave) --\n", peer.Username)
	case "/close":
		eng.ClosePrivate()
		fmt.Println("-- back to room --")
	case "/users":
		for _, u := range eng.Store().Users() {
			state := "offline"
			if u.IsOnline {
				state = "online"
			}
			fmt.Printf("  %s (%s, %s)\n", u.Username, u.Room, state)
		}
	case "/rooms":
		for _, r := range eng.Store().Rooms() {
			fmt.Printf("  %s (%d members)\n", r.Name, len(r.Members))
		}
	case "/typing":
		fmt.Printf("  typing: %s\n", strings.Join(eng.Store().TypingUsers(), ", "))
	case "/help":
		fmt.Println("commands: /switch <room>, /pm <username>, /close, /users, /rooms, /typing, /quit")
	default:
		fmt.Printf("unknown command %s (try /help)\n", fields[0])
	}
	return false
}

func findPeer(eng *core.Engine, username string) (core.User, bool) {
	for _, u := range eng.Store().Users() {
		if u.Username == username && u.ID != eng.Session().LocalUser().ID {
			return u, true
		}
	}
	return core.User{}, false
}
