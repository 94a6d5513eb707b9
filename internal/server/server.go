// Package server provides the cyberbot HTTP API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/geacyber/cyberbot/internal/analysis"
	"github.com/geacyber/cyberbot/internal/assistant"
	"github.com/geacyber/cyberbot/internal/config"
	"github.com/geacyber/cyberbot/internal/github"
	"github.com/geacyber/cyberbot/internal/history"
	"github.com/geacyber/cyberbot/internal/pagespeed"
	"github.com/geacyber/cyberbot/internal/repos"
	cyberslack "github.com/geacyber/cyberbot/internal/slack"
	"github.com/geacyber/cyberbot/internal/sonar"
	cybertelegram "github.com/geacyber/cyberbot/internal/telegram"
	"github.com/geacyber/cyberbot/internal/tools"
)

// Turner runs one assistant turn. *assistant.Orchestrator implements it.
type Turner interface {
	Turn(ctx context.Context, message, threadID string) (*assistant.Turn, error)
}

// Deps are the collaborators a Server routes to. Chat is nil when the
// assistant is not configured; History is nil when history is disabled.
type Deps struct {
	Analysis *analysis.Service
	Chat     Turner
	History  *history.Recorder
}

// Server is the cyberbot HTTP API server.
type Server struct {
	config      *config.Config
	deps        Deps
	router      chi.Router
	store       *history.Store     // nil if history is disabled
	slackBot    *cyberslack.Bot    // nil if Slack is not configured
	telegramBot *cybertelegram.Bot // nil if Telegram is not configured
}

// New creates a new Server with all dependencies built from cfg.
func New(cfg *config.Config) (*Server, error) {
	var (
		store    *history.Store
		recorder *history.Recorder
	)
	if cfg.HistoryEnabled {
		var err error
		store, err = history.NewStore(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("initializing history store: %w", err)
		}
		recorder = history.NewRecorder(store, history.NewEventBus())
	}

	svc := NewAnalysisService(cfg)

	var chat Turner
	if cfg.AssistantConfigured() {
		chat = NewOrchestrator(cfg, svc, recorder)
		log.Info().Str("assistant", cfg.OpenAI.AssistantID).Msg("assistant chat enabled")
	} else {
		log.Warn().Msg("assistant chat disabled (missing OPENAI_ASSISTANT_ID or OPENAI_API_KEY)")
	}

	s := newServer(cfg, Deps{Analysis: svc, Chat: chat, History: recorder})
	s.store = store

	if cfg.SlackEnabled() {
		s.slackBot = cyberslack.NewBot(cfg.SlackBotToken, cfg.SlackAppToken, s)
		log.Info().Msg("slack bot enabled (socket mode)")
	}
	if cfg.TelegramEnabled() {
		tgBot, err := cybertelegram.NewBot(cfg.TelegramBotToken, s)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize telegram bot")
		} else {
			s.telegramBot = tgBot
			log.Info().Msg("telegram bot enabled (long polling)")
		}
	}

	return s, nil
}

func newServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{config: cfg, deps: deps}
	s.router = s.buildRouter()
	return s
}

// NewAnalysisService wires the vendor clients and repository catalog.
func NewAnalysisService(cfg *config.Config) *analysis.Service {
	catalog := repos.NewCatalog(cfg.Repos.PrimaryPath, cfg.Repos.FallbackPath)
	live := &repos.Live{Catalog: catalog}
	svc := &analysis.Service{
		Catalog: catalog,
		Repos:   live,
		PageSpeed: pagespeed.NewClient(cfg.PageSpeed.APIKey,
			pagespeed.WithBaseURL(cfg.PageSpeed.BaseURL),
			pagespeed.WithRequestsPerMinute(cfg.PageSpeed.RequestsPerMinute),
		),
	}
	if cfg.SonarConfigured() {
		sc := sonar.NewClient(cfg.SonarCloud.Token, cfg.SonarCloud.Organization,
			sonar.WithBaseURL(cfg.SonarCloud.BaseURL))
		svc.Sonar = sc
		live.Projects = sc
		if cfg.GitHubToken != "" {
			live.Verifier = github.NewClient(cfg.GitHubToken)
		}
	}
	return svc
}

// NewOrchestrator builds the assistant orchestrator with the function
// registry. recorder may be nil.
func NewOrchestrator(cfg *config.Config, svc *analysis.Service, recorder *history.Recorder) *assistant.Orchestrator {
	registry := tools.NewBase(svc)
	if cfg.OpenAI.AuditTool {
		tools.RegisterAudit(registry, svc)
	}
	opts := []assistant.Option{assistant.WithPollPolicy(assistant.PollPolicy{
		Interval:    cfg.OpenAI.PollInterval,
		MaxAttempts: cfg.OpenAI.MaxPolls,
	})}
	if recorder != nil {
		opts = append(opts, assistant.WithObserver(recorder.Observe))
	}
	return assistant.New(assistant.NewClient(cfg.OpenAI), registry, cfg.OpenAI.AssistantID, opts...)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and the configured chat bots. It blocks until
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s.slackBot != nil {
		go func() {
			if err := s.slackBot.Run(ctx); err != nil {
				log.Error().Err(err).Msg("slack bot stopped")
			}
		}()
	}
	if s.telegramBot != nil {
		go func() {
			if err := s.telegramBot.Run(ctx); err != nil {
				log.Error().Err(err).Msg("telegram bot stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.config.ServerAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.config.ServerAddr).Msg("cyberbot server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Minute))

		r.Post("/chat", s.handleChat)
		r.Get("/chat/threads/{id}/turns", s.handleThreadTurns)

		r.Route("/performance", func(r chi.Router) {
			r.Post("/analyze", s.handlePerformance)
			r.Post("/analyze-website", s.handleWebsiteAudit)
		})

		r.Route("/code-quality", func(r chi.Router) {
			r.Post("/validate", s.handleValidateRepo)
			r.Post("/analyze", s.handleCodeAnalysis)
			r.Get("/repos", s.handleListRepos)
		})
	})

	// Streams stay open as long as the client listens.
	r.Get("/chat/threads/{id}/events", s.handleThreadEvents)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

// Converse runs one turn and records it. It is the shared entry point of the
// HTTP API and the chat bots.
func (s *Server) Converse(ctx context.Context, channel, message, threadID string) (*assistant.Turn, error) {
	if s.deps.Chat == nil {
		return nil, errAssistantNotConfigured
	}
	turn, err := s.deps.Chat.Turn(ctx, message, threadID)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Str("thread", threadID).Msg("chat turn failed")
	}
	if s.deps.History != nil && !errors.Is(err, assistant.ErrEmptyMessage) {
		s.deps.History.RecordTurn(channel, message, turn, err)
	}
	return turn, err
}
