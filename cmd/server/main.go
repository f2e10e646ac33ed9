package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	authzrepofakes "github.com/beaconchat/auth-server/authz/repofakes"
	"github.com/beaconchat/auth-server/clients"
	"github.com/beaconchat/auth-server/internal/config"
	"github.com/beaconchat/auth-server/server"
	sessionrepofakes "github.com/beaconchat/auth-server/sessions/repofakes"
	tokenrepofakes "github.com/beaconchat/auth-server/token/repofakes"
	"github.com/beaconchat/auth-server/upstream"
	upstreamrepofakes "github.com/beaconchat/auth-server/upstream/repofakes"
	"github.com/beaconchat/auth-server/users"
	userrepofakes "github.com/beaconchat/auth-server/users/repofakes"
	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	clientRegistry, err := loadClients(c.GetClientsFile())
	if err != nil {
		return err
	}
	providers, err := loadProviders(c.GetUpstreamProvidersFile())
	if err != nil {
		return err
	}

	repos := inMemoryRepos()
	if c.GetEnv() == "DEV" {
		if err := seedDevUser(repos); err != nil {
			return err
		}
	}

	handler, err := server.New(c, repos, clientRegistry, providers)
	if err != nil {
		return errors.Wrap(err, "[run] creating server")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// loadClients reads the registered-clients snapshot. The registry is
// read-only for the lifetime of the process; dynamic registration is not
// supported.
func loadClients(path string) (clients.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[loadClients] reading %q", path)
	}
	var registry clients.Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, errors.Wrapf(err, "[loadClients] parsing %q", path)
	}
	log.Info().Int("clients", len(registry)).Msg("Loaded client registry")
	return registry, nil
}

func loadProviders(path string) (upstream.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Upstream providers are optional; without them only password
		// login is offered.
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("No upstream providers file, continuing without upstream login")
			return nil, nil
		}
		return nil, errors.Wrapf(err, "[loadProviders] reading %q", path)
	}
	var registry upstream.Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, errors.Wrapf(err, "[loadProviders] parsing %q", path)
	}
	log.Info().Int("providers", len(registry)).Msg("Loaded upstream providers")
	return registry, nil
}

func inMemoryRepos() server.Repos {
	return server.Repos{
		Authz:           authzrepofakes.NewFakeAuthzRepo(),
		Tokens:          tokenrepofakes.NewFakeTokenRepo(),
		BrowserSessions: sessionrepofakes.NewFakeBrowserSessionRepo(),
		Users:           userrepofakes.NewFakeUserRepo(),
		UpstreamLinks:   upstreamrepofakes.NewFakeLinkRepo(),
		UpstreamFlows:   upstreamrepofakes.NewFakeUpstreamSessionRepo(),
	}
}

func seedDevUser(repos server.Repos) error {
	hash, err := users.HashPassword("password")
	if err != nil {
		return errors.Wrap(err, "[seedDevUser] hashing password")
	}
	repos.Users.(*userrepofakes.FakeUserRepo).Add(&users.User{
		ID:           "dev-user",
		Username:     "dev",
		Email:        "dev@localhost",
		PasswordHash: hash,
	})
	log.Warn().Msg("Seeded development user 'dev' (password 'password')")
	return nil
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("Server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("ListenAndServe failed")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
