package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"wordsprint/internal/app"
	"wordsprint/internal/audio"
	"wordsprint/internal/config"
	transport "wordsprint/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	board, err := b.leaderboard()
	if err != nil {
		return err
	}
	service := app.NewGameService(b.sessionStore(), b.wordRepository(), board, app.WithMissTracker(b.missTracker()))

	opts := transport.Options{
		TickInterval: config.TTLDuration(cfg.Session.Tick, app.DefaultTickInterval),
	}
	admin, err := transport.NewAdminAuth(cfg.Admin.Password, cfg.Admin.PasswordHash, cfg.Admin.JWTSecret,
		config.TTLDuration(cfg.Admin.TokenTTL, time.Hour))
	if err != nil {
		return err
	}
	if admin == nil {
		log.Printf("admin endpoints disabled: no admin password configured")
	} else {
		opts.Admin = admin
	}
	if cfg.Audio.Enabled {
		tts, err := audio.NewGoogleTTS(ctx, cfg.Audio.Language, cfg.Audio.Voice)
		if err != nil {
			return err
		}
		defer tts.Close()
		opts.Audio = audio.NewLibrary(tts, cfg.Audio.Dir)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepIdleSessions(sweepCtx, service, config.TTLDuration(cfg.Session.IdleTTL, 30*time.Minute))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting wordsprint on :%s (leaderboard: %s, policy: %s)", finalPort, cfg.Leaderboard.Backend, board.Policy())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepIdleSessions discards sessions nobody touched within idle.
func sweepIdleSessions(ctx context.Context, service *app.GameService, idle time.Duration) {
	every := idle / 2
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := service.SweepIdle(idle); n > 0 {
				log.Printf("discarded %d idle sessions", n)
			}
		}
	}
}
