package bootstrap

import (
	"context"
	"log"

	"contactiq-be/internal/config"
	"contactiq-be/internal/constant"
	"contactiq-be/internal/controller"
	"contactiq-be/internal/pkg/logger"
	"contactiq-be/internal/pkg/mailer"
	"contactiq-be/internal/repository/implementation"
	"contactiq-be/internal/repository/memory"
	"contactiq-be/internal/service"
	"contactiq-be/internal/websocket"
	"contactiq-be/pkg/audit"
	"contactiq-be/pkg/embedding"
	"contactiq-be/pkg/escalation"
	"contactiq-be/pkg/knowledge"
	"contactiq-be/pkg/llm/factory"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/pipeline/confidence"
	"contactiq-be/pkg/pipeline/escalate"
	"contactiq-be/pkg/pipeline/intent"
	"contactiq-be/pkg/pipeline/respond"
	"contactiq-be/pkg/pipeline/retrieve"
	"contactiq-be/pkg/pipeline/route"
	"contactiq-be/pkg/resilience"
	"contactiq-be/pkg/store"

	pkgNats "contactiq-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const escalationTopic = "escalation.raised"

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	EscalationService service.IEscalationService
	AuditLogger       *audit.Logger

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Gateways
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// Session storage: in-process cache by default, Redis when instances
	// must share conversations.
	var sessionStore store.SessionStore
	if cfg.App.SessionStore == "redis" && rdb != nil {
		sessionStore = memory.NewRedisSessionRepository(rdb, 0, sysLogger)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionStore = memory.NewSessionRepository()
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	// WebSocket Hub for the agent console feed
	wsLogger := logger.NewIsolatedLogger("logs/escalation.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Repositories
	interactionRepo := implementation.NewInteractionRepository(db)
	chunkRepo := implementation.NewKnowledgeChunkRepository(db)

	// 6. Pipeline stages
	breakerCfg := resilience.BreakerConfig{
		FailureThreshold: cfg.Resilient.FailureThreshold,
		RecoveryTimeout:  cfg.Resilient.RecoveryTimeout,
		SuccessThreshold: cfg.Resilient.SuccessThreshold,
		OnStateChange: func(name string, from, to resilience.BreakerState) {
			sysLogger.Warn("Breaker", "State changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	retryCfg := resilience.RetryConfig{
		MaxAttempts:     uint64(cfg.Resilient.RetryAttempts),
		InitialInterval: resilience.DefaultRetryConfig().InitialInterval,
		MaxInterval:     resilience.DefaultRetryConfig().MaxInterval,
	}

	classificationBreaker := resilience.NewBreaker("classification", breakerCfg)
	retrievalBreaker := resilience.NewBreaker("retrieval", breakerCfg)
	generationBreaker := resilience.NewBreaker("generation", breakerCfg)

	knowledgeProvider := knowledge.NewPgvectorProvider(chunkRepo, embeddingProvider, sysLogger)

	classifier := intent.NewClassifier(llmProvider, classificationBreaker, retryCfg, sysLogger)
	router := route.NewRouter(route.DefaultConfig(), sysLogger)
	retriever := retrieve.NewRetriever(knowledgeProvider, retrievalBreaker, retryCfg, retrieve.Config{
		TopK:       cfg.Pipeline.RetrievalTopK,
		ScoreFloor: cfg.Pipeline.RetrievalScoreFloor,
	}, sysLogger)
	generator := respond.NewGenerator(llmProvider, generationBreaker, retryCfg, sysLogger)

	weights := confidence.DefaultWeights()
	weights.NoContextCap = cfg.Pipeline.NoContextCap
	weights.SensitiveCeiling = cfg.Pipeline.SensitiveCeiling
	scorer := confidence.NewScorer(weights)

	policy := escalate.DefaultPolicy()
	policy.ConfidenceThreshold = cfg.Pipeline.ConfidenceThreshold
	for _, intentName := range cfg.Pipeline.SensitiveAllowList {
		policy.SensitiveAllowList[intentName] = true
	}
	decider := escalate.NewDecider(policy)

	// 7. Audit logger
	auditStore := service.NewInteractionAuditStore(interactionRepo)
	auditCfg := audit.DefaultConfig()
	auditCfg.QueueSize = cfg.Audit.QueueSize
	auditCfg.MaxAttempts = uint64(cfg.Audit.MaxAttempts)
	auditCfg.InitialBackoff = cfg.Audit.InitialBackoff
	auditCfg.MaxBackoff = cfg.Audit.MaxBackoff
	auditLogger := audit.NewLogger(auditStore, auditCfg, sysLogger)
	if cfg.SMTP.AlertEmail != "" {
		auditLogger.OnDeadLetter(func(record *audit.Record) {
			if err := emailService.SendDeadLetterAlert(cfg.SMTP.AlertEmail, record.RequestID, record.LastError, record.AttemptCount); err != nil {
				sysLogger.Error("AuditLogger", "Failed to send dead-letter alert", map[string]interface{}{
					"request_id": record.RequestID,
					"error":      err.Error(),
				})
			}
		})
	}
	auditLogger.Start()

	// 8. Escalation fan-out
	escalationPub := escalation.NewNatsPublisher(natsPub, sysLogger)
	escalationService := service.NewEscalationService(pubSub, escalationTopic, escalationPub, wsHub, sysLogger)

	// 9. Orchestrator
	orchestratorCfg := pipeline.OrchestratorConfig{
		OverallTimeout:    cfg.Pipeline.OverallTimeout,
		ClassifyTimeout:   cfg.Pipeline.ClassifyTimeout,
		RetrieveTimeout:   cfg.Pipeline.RetrieveTimeout,
		GenerateTimeout:   cfg.Pipeline.GenerateTimeout,
		MaxQueryLength:    cfg.Pipeline.MaxQueryLength,
		EscalationMessage: constant.EscalationMessage,
		FailureMessage:    constant.SafeFailureMessage,
	}
	orchestrator := pipeline.NewOrchestrator(
		classifier,
		router,
		retriever,
		generator,
		scorer,
		decider,
		auditLogger,
		escalationService.Raise,
		orchestratorCfg,
		sysLogger,
	)

	// 10. Services & Controllers
	assistantService := service.NewAssistantService(orchestrator, sessionStore, interactionRepo, escalationPub, sysLogger)

	return &Container{
		AssistantController: controller.NewAssistantController(assistantService),
		EscalationService:   escalationService,
		AuditLogger:         auditLogger,
		WebSocketHub:        wsHub,
	}
}
