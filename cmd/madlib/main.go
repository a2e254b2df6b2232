package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"madlib-engine/internal/agent"
	"madlib-engine/internal/common/config"
	apperrors "madlib-engine/internal/common/errors"
	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/common/observability"
	"madlib-engine/internal/madlib"
	"madlib-engine/internal/store"

	contentcheck "madlib-engine/internal/workers/content-check"
	madlibsave "madlib-engine/internal/workers/madlib-save"
	nounvalidate "madlib-engine/internal/workers/noun-validate"
	templategen "madlib-engine/internal/workers/template-generate"
	wordgen "madlib-engine/internal/workers/word-generate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// stdinSource reads player words from the terminal.
type stdinSource struct {
	reader *bufio.Reader
}

func (s *stdinSource) Read(ctx context.Context, kind madlib.Kind, index int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Printf("Please enter %s #%d: ", kind, index)
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *stdinSource) Reject(word, reasoning string) {
	if word == "" {
		fmt.Println("Please enter a word.")
		return
	}
	fmt.Printf("'%s' is not a valid noun. Please try again.\n", word)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	jaegerEndpoint := ""
	if cfg.Tracing.Enabled {
		jaegerEndpoint = cfg.Tracing.JaegerEndpoint
	}
	obs := observability.New(cfg.App.Name, jaegerEndpoint)
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			zapLog.Info("metrics endpoint listening", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
				zapLog.Warn("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agentCfg := agent.ConfigFromApp(cfg.Agent)

	gate := contentcheck.NewHandler(&contentcheck.Config{Agent: agentCfg}, log)
	templates := templategen.NewHandler(&templategen.Config{
		Agent:        agentCfg,
		SlotsPerKind: cfg.Template.SlotsPerKind,
		MaxWords:     cfg.Template.MaxWords,
	}, log)
	validator := nounvalidate.NewHandler(&nounvalidate.Config{Agent: agentCfg}, log)
	generator := wordgen.NewHandler(&wordgen.Config{Agent: agentCfg}, log)

	saver := madlibsave.NewHandler(&madlibsave.Config{
		Endpoint:   cfg.Save.Endpoint,
		Timeout:    time.Duration(cfg.Save.Timeout) * time.Millisecond,
		MaxRetries: 2,
	}, log)

	sink := &store.FanoutSink{Primary: saver, Logger: log}

	if cfg.Save.ArchiveEnabled {
		var archive *store.MadlibArchive
		err := retryWithBackoff(func() error {
			db, err := store.OpenPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			archive = store.NewMadlibArchive(db)
			return archive.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Warn("madlib archive unavailable, continuing without it", zap.Error(err))
		} else {
			defer archive.Close()
			sink.Archive = archive
		}
	}

	if cfg.Save.CacheEnabled {
		cache := store.NewRecentCache(cfg.Database.Redis, time.Duration(cfg.Save.CacheTTL)*time.Minute)
		if err := cache.Ping(ctx); err != nil {
			zapLog.Warn("madlib cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer cache.Close()
			sink.Cache = cache
		}
	}

	source := &stdinSource{reader: bufio.NewReader(os.Stdin)}
	coordinator := madlib.NewCoordinator(source, validator, generator, log).WithMetrics(obs)

	session := madlib.NewSession(madlib.Deps{
		Gate:      gate,
		Templates: templates,
		Fill:      coordinator,
		Sink:      sink,
		Logger:    log,
		Tracer:    obs.Tracer(),
		Metrics:   obs,
	})

	fmt.Println("Welcome to the Madlib Generator!")
	fmt.Print("What topic would you like for your madlib? ")
	topic, err := source.reader.ReadString('\n')
	if err != nil {
		zapLog.Fatal("failed to read topic", zap.Error(err))
	}
	topic = strings.TrimSpace(topic)

	fmt.Printf("\nCreating a madlib about '%s'...\n", topic)

	result, err := session.Run(ctx, topic)
	if err != nil && result.Madlib == nil {
		fmt.Println()
		fmt.Println(apperrors.UserMessage(err))
		if !apperrors.IsGuardrailRejection(err) {
			os.Exit(1)
		}
		return
	}

	fmt.Println("\nYour Completed Madlib:")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Println(result.Madlib.FilledText)
	fmt.Println(strings.Repeat("-", 50))

	if result.Saved {
		fmt.Printf("\nMadlib saved successfully! ID: %s\n", result.SaveID)
	} else if result.SaveErr != nil {
		fmt.Printf("\n%s\n", apperrors.UserMessage(result.SaveErr))
	}
}
