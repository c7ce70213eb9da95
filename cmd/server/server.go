package main

import (
	"fmt"
	"log"
	"net/http"

	"studyhelper/config"
	"studyhelper/db"
	"studyhelper/handlers"
	"studyhelper/services"
	"studyhelper/services/docindex"
	"studyhelper/services/generator"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	quizRepo, err := db.NewPostgresQuizRepository(cfg.DatabaseURL, cfg.QuestionMarks)
	if err != nil {
		log.Fatalf("Failed to initialize quiz database: %v", err)
	}
	defer quizRepo.Close()

	attemptRepo, err := db.NewPostgresAttemptRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize attempt database: %v", err)
	}
	defer attemptRepo.Close()

	docRepo, err := db.NewPostgresDocumentRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize document database: %v", err)
	}
	defer docRepo.Close()

	generatorService, err := generator.NewService(cfg.OpenAIAPIKey, cfg.GenerationRetries, cfg.GenerationTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize generation service: %v", err)
	}

	// The document index is optional; without it document-sourced quizzes
	// require inline content in the request.
	var docindexService services.ChunkRetriever
	if cfg.PineconeAPIKey != "" {
		svc, err := docindex.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
		if err != nil {
			log.Fatalf("Failed to initialize document index service: %v", err)
		}
		docindexService = svc
	} else {
		log.Printf("[WARN] PINECONE_API_KEY not set, document index disabled")
	}

	quizService := services.NewQuizService(generatorService, quizRepo, attemptRepo, docRepo, docindexService, cfg)
	quizHandler := handlers.NewQuizHandler(quizService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	quizHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
