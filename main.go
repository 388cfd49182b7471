package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/inngest/inngestgo"
	"github.com/joho/godotenv"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/providers"
	"github.com/brandlens/brandlens-workflows/internal/store"
	"github.com/brandlens/brandlens-workflows/internal/stream"
	"github.com/brandlens/brandlens-workflows/services"
	"github.com/brandlens/brandlens-workflows/workflows"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err != nil {
			log.Printf("Note: No .env or dev.env file loaded: %v", err)
		} else {
			log.Printf("Loaded dev.env file for local development")
		}
	} else {
		log.Printf("Loaded .env file")
	}

	cfg := config.Load()

	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Port: %s", cfg.Port)

	if cfg.OpenAIAPIKey == "" {
		log.Printf("WARNING: OpenAI API key not loaded!")
	} else {
		log.Printf("OpenAI API key loaded (length: %d)", len(cfg.OpenAIAPIKey))
	}
	if cfg.AnthropicAPIKey == "" {
		log.Printf("WARNING: Anthropic API key not loaded!")
	} else {
		log.Printf("Anthropic API key loaded (length: %d)", len(cfg.AnthropicAPIKey))
	}

	ctx := context.Background()

	// Persistence is optional: without a database the service still
	// analyzes, it just loses history and week-over-week deltas.
	var resultStore *store.Store
	if cfg.DatabaseURL != "" || os.Getenv("DB_HOST") != "" {
		s, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			log.Printf("WARNING: Failed to connect to database, running without persistence: %v", err)
		} else {
			if err := s.EnsureSchema(ctx); err != nil {
				log.Fatalf("Failed to ensure database schema: %v", err)
			}
			resultStore = s
			defer resultStore.Close()
			log.Printf("Successfully connected to database")
		}
	} else {
		log.Printf("No database configured, running without persistence")
	}

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		log.Printf("Running in development mode - signing key verification disabled")
	}

	// Initialize the provider registry and services
	registry := providers.NewRegistry(cfg)
	log.Printf("Provider registry initialized with %d configured providers", len(registry.Configured()))

	extractionService := services.NewExtractionService(cfg)
	analyzerService := services.NewAnalyzerService(cfg, extractionService)
	promptService := services.NewPromptService(cfg)
	competitorService := services.NewCompetitorService(cfg, registry)
	aggregationService := services.NewAggregationService()
	orchestrator := services.NewOrchestratorService(cfg, registry, promptService, competitorService, analyzerService, aggregationService)
	log.Printf("Pipeline services initialized")

	// Create Inngest client
	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "brandlens-workflows",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		log.Fatalf("Failed to create Inngest client: %v", err)
	}

	// Initialize and register workflows
	log.Printf("Initializing AnalysisProcessor workflow...")
	analysisProcessor := workflows.NewAnalysisProcessor(orchestrator, aggregationService, resultStore, cfg)
	analysisProcessor.SetClient(client)
	analysisProcessor.ProcessAnalysis()

	if resultStore != nil {
		log.Printf("Initializing ScheduledProcessor workflow...")
		scheduledProcessor := workflows.NewScheduledProcessor(resultStore)
		scheduledProcessor.SetClient(client)
		scheduledProcessor.WeeklyRefresh()
	}

	log.Printf("All processors initialized and functions registered")

	h := client.Serve()
	mux := http.NewServeMux()
	mux.Handle("/api/inngest", h)

	// Root endpoint for ALB health check
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"brandlens-workflows","status":"running"}`))
	})

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Synchronous analysis with progress streamed over SSE
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req services.AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf(`{"error":"invalid request body: %v"}`, err), http.StatusBadRequest)
			return
		}
		if req.Company.Name == "" {
			http.Error(w, `{"error":"company.name is required"}`, http.StatusBadRequest)
			return
		}

		writer, err := stream.NewWriter(w)
		if err != nil {
			http.Error(w, `{"error":"streaming not supported"}`, http.StatusInternalServerError)
			return
		}

		result, err := orchestrator.Run(r.Context(), req, func(event models.ProgressEvent) {
			if err := writer.WriteEvent(event); err != nil {
				log.Printf("Failed to write stream event: %v", err)
			}
		})
		if err != nil {
			// Terminal failures already produced an error event
			log.Printf("Analysis failed for %s: %v", req.Company.Name, err)
			return
		}

		if resultStore != nil {
			previous, err := resultStore.LatestBefore(r.Context(), result.Company.URL, result.CreatedAt)
			if err == nil && previous != nil {
				aggregationService.ApplyWeekOverWeek(result.Competitors, previous.Competitors)
			}
			if err := resultStore.SaveResult(r.Context(), result); err != nil {
				log.Printf("Failed to persist analysis result: %v", err)
			}
		}
	})

	// Stored result history for a company
	mux.HandleFunc("/api/history", historyHandler(resultStore))

	// Asynchronous analysis via the background workflow
	mux.HandleFunc("/api/analyze/async", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req workflows.AnalysisRequestedEvent
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf(`{"error":"invalid request body: %v"}`, err), http.StatusBadRequest)
			return
		}
		if req.Company.Name == "" {
			http.Error(w, `{"error":"company.name is required"}`, http.StatusBadRequest)
			return
		}
		req.TriggeredBy = "api"

		evt := inngestgo.Event{
			Name: "analysis.requested",
			Data: map[string]interface{}{
				"company":      req.Company,
				"prompts":      req.Prompts,
				"competitors":  req.Competitors,
				"useWebSearch": req.UseWebSearch,
				"useMockMode":  req.UseMockMode,
				"triggeredBy":  req.TriggeredBy,
			},
		}
		result, err := client.Send(r.Context(), evt)
		if err != nil {
			log.Printf("Failed to send analysis event: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf(`{"error":"Failed to send event: %v"}`, err)))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(fmt.Sprintf(`{"status":"queued","event_id":"%s"}`, result)))
	})

	// Start server
	port := cfg.Port
	log.Printf("Starting BrandLens Workflows service on port %s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

// historyHandler serves past analysis results for one company, newest
// first. A nil store means the service runs without persistence.
func historyHandler(resultStore *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if resultStore == nil {
			http.Error(w, `{"error":"no database configured"}`, http.StatusServiceUnavailable)
			return
		}

		companyURL := r.URL.Query().Get("companyUrl")
		if companyURL == "" {
			http.Error(w, `{"error":"companyUrl is required"}`, http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		results, err := resultStore.History(r.Context(), companyURL, limit)
		if err != nil {
			log.Printf("Failed to query history for %s: %v", companyURL, err)
			http.Error(w, `{"error":"failed to load history"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"companyUrl": companyURL,
			"results":    results,
		}); err != nil {
			log.Printf("Failed to write history response: %v", err)
		}
	}
}
