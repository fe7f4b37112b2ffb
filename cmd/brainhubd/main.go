// Command brainhubd is the composition root: it owns every process-scoped
// service (database pool, job queue, scheduled jobs, vector store, AI
// provider facade, chat agent) for the lifetime of the process and exposes
// them over one gin HTTP surface, grounded on the monorepo's httpd
// command shape (index-manager/cmd/httpd/main.go): load config, build
// dependencies bottom-up, wire the HTTP handler, run with graceful
// shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/brainhub/internal/agent"
	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/aitask"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
	platformconfig "github.com/jonesrussell/north-cloud/brainhub/internal/platform/config"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/health"
	infrajwt "github.com/jonesrussell/north-cloud/brainhub/internal/platform/jwt"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/server"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
	"github.com/jonesrussell/north-cloud/brainhub/internal/scheduler"
	"github.com/jonesrussell/north-cloud/brainhub/internal/storage"
)

func main() {
	cfg, err := platformconfig.LoadWithDefaults("config.yml", (*platformconfig.AppConfig).SetDefaults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "brainhubd: load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewFromLoggingConfig(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "brainhubd: build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("brainhubd exited with error", logger.Error(err))
	}
}

func run(cfg *platformconfig.AppConfig, log logger.Logger) error {
	ctx := context.Background()

	db, err := database.Connect(database.Config{
		DSN: cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database connection established")

	notes := database.NewNoteRepository(db)
	tags := database.NewTagRepository(db)
	attachments := database.NewAttachmentRepository(db)
	comments := database.NewCommentRepository(db)
	providers := database.NewAIProviderRepository(db)
	appConfig := database.NewAppConfigRepository(db)
	progress := database.NewProgressCacheRepository(db)
	follows := database.NewFollowRepository(db)
	userTasks := database.NewUserTaskRepository(db)

	blobs, err := storage.NewLocalStore("./data/blobs")
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	vectorStore, err := embedding.Open(cfg.Vector.Path)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer vectorStore.Close()

	facade := aiprovider.NewFacade()
	embedder := embedding.NewProviderEmbedder(facade, providers, appConfig)
	engine := embedding.NewEngine(vectorStore, notes, attachments, progress, embedder, log)

	q := queue.New(db, queue.MonitorConfig{
		PollEvery: cfg.Queue.PollEvery,
		ArchiveAfter: cfg.Queue.ArchiveAfter,
		PurgeAfter: cfg.Queue.PurgeAfter,
	}, prometheus.DefaultRegisterer, log)

	resolver := agent.NewPrincipalResolver(cfg.Auth.JWTSecret)
	registry := agent.NewRegistry(
		agent.NewUpsertBlinkoTool(notes),
		agent.NewUpdateBlinkoTool(notes),
		agent.NewDeleteBlinkoTool(notes),
		agent.NewSearchBlinkoTool(notes, engine, appConfig),
		agent.NewCreateCommentTool(comments),
		agent.NewWebSearchTool(appConfig),
		agent.NewWebExtraTool(appConfig),
	)

	ag := agent.New(agent.Deps{
		Facade: facade,
		Providers: providers,
		Config: appConfig,
		Notes: notes,
		Tags: tags,
		Comments: comments,
		Retriever: engine,
		Resolver: resolver,
		Registry: registry,
		Log: log,
	})

	// The scheduler<->agent cycle: AIScheduledTaskJob needs a PromptRunner
	// (the Agent itself) to execute a firing task's prompt, and the
	// scheduled-task tools need a TaskManager built on top of that same
	// job — so the job is built right after the Agent, and the tools are
	// registered into the Agent's own Registry a moment later.
	aiTaskJob := scheduler.NewAIScheduledTaskJob(q, userTasks, ag, log)
	taskManager := aitask.New(userTasks, aiTaskJob)
	registry.AddTool(agent.NewCreateScheduledTaskTool(taskManager))
	registry.AddTool(agent.NewDeleteScheduledTaskTool(taskManager))
	registry.AddTool(agent.NewListScheduledTasksTool(taskManager))

	archiveJob := scheduler.NewArchiveJob(q, notes, appConfig, log)
	dbJob := scheduler.NewDBJob(q, cfg.Database.DSN, blobs, progress, log)
	rebuildJob := scheduler.NewRebuildEmbeddingJob(q, engine, log)
	recommendJob := scheduler.NewRecommendJob(q, follows, progress, log)

	if err := q.Start(ctx); err != nil {
		return fmt.Errorf("start queue: %w", err)
	}
	defer q.Stop()

	for name, initFn := range map[string]func(context.Context, string) error{
		"archive-job": archiveJob.Initialize,
		"db-job": dbJob.Initialize,
		"rebuild-embedding-job": rebuildJob.Initialize,
		"recommend-job": recommendJob.Initialize,
	} {
		if err := initFn(ctx, ""); err != nil {
			return fmt.Errorf("initialize %s: %w", name, err)
		}
	}
	if err := aiTaskJob.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize ai-scheduled-task job: %w", err)
	}

	router := newRouter(cfg, log, ag)

	httpServer := server.New(server.Config{
		Address: cfg.Server.Address,
		ReadTimeout: cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router)

	return server.RunWithGracefulShutdownTimeout(ctx, httpServer, log, cfg.Server.ShutdownTimeout)
}

// newRouter wires the gin engine: public health checks, then a JWT-guarded
// group carrying the chat-completion and note-post-processing surface the
// MCP/SSE frontend calls into.
func newRouter(cfg *platformconfig.AppConfig, log logger.Logger, ag *agent.Agent) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	checker := health.NewChecker()
	health.RegisterRoutes(router, checker)

	api := router.Group("/api")
	api.Use(infrajwt.Middleware(cfg.Auth.JWTSecret))

	api.POST("/completions", completionsHandler(ag, log))
	api.POST("/notes/:id/postprocess", postProcessHandler(ag))

	return router
}

type completionsRequest struct {
	Question string `json:"question"`
	WithTools bool `json:"withTools"`
	WithRAG bool `json:"withRag"`
	SystemPrompt string `json:"systemPrompt"`
}

// completionsHandler runs the chat flow and streams the reply back as
// Server-Sent Events, one event per delta, the same framing the MCP SSE
// frontend's EventSource client expects.
func completionsHandler(ag *agent.Agent, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		accountID, err := principalFromJWT(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx := agent.WithAccountID(c.Request.Context(), accountID)

		result, err := ag.Completions(ctx, req.Question, nil, req.WithTools, req.WithRAG, req.SystemPrompt)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.WriteHeader(http.StatusOK)
		flusher, _ := c.Writer.(http.Flusher)

		fmt.Fprintf(c.Writer, "event: notes\ndata: %d\n\n", len(result.Notes))
		if flusher != nil {
			flusher.Flush()
		}

		for chunk := range result.Chunks {
			fmt.Fprintf(c.Writer, "event: delta\ndata: %s\n\n", chunk.Delta)
			if flusher != nil {
				flusher.Flush()
			}
			if chunk.Done {
				break
			}
		}
		log.Debug("completions stream finished", logger.Int("notes", len(result.Notes)))
	}
}

type postProcessRequest struct {
	Mode string `json:"mode"`
}

func postProcessHandler(ag *agent.Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req postProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var noteID int64
		if _, err := fmt.Sscanf(c.Param("id"), "%d", &noteID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
			return
		}

		accountID, err := principalFromJWT(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx := agent.WithAccountID(c.Request.Context(), accountID)

		if err := ag.PostProcessNote(ctx, noteID, agent.PostProcessMode(req.Mode)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// principalFromJWT reads the bearer token infrajwt.Middleware already
// validated and stashed on the gin context, returning its subject as the
// acting account id.
func principalFromJWT(c *gin.Context) (int64, error) {
	claims, ok := c.Get("claims")
	if !ok {
		return 0, fmt.Errorf("no authenticated principal on request")
	}
	parsed, ok := claims.(*infrajwt.Claims)
	if !ok {
		return 0, fmt.Errorf("unexpected claims type")
	}
	var accountID int64
	if _, err := fmt.Sscanf(parsed.Sub, "%d", &accountID); err != nil {
		return 0, fmt.Errorf("token subject is not an account id: %w", err)
	}
	return accountID, nil
}
