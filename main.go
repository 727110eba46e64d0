package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yunseo/custombotAI/config"
	"github.com/yunseo/custombotAI/controllers"
	"github.com/yunseo/custombotAI/evaluation"
	"github.com/yunseo/custombotAI/storage"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "evaluate" {
		// usage: go run main.go evaluate [bot_id]
		runEvaluation()
		return
	}

	runServer()
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := storage.NewMongoStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	if err := store.EnsureIndexes(); err != nil {
		log.Printf("Note: index creation skipped: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	ragController := controllers.NewRAGController(cfg, store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "custombotAI",
		})
	})

	api := router.Group("/api")
	{
		api.POST("/bots", ragController.CreateBot)
		api.GET("/bots", ragController.ListBots)
		api.POST("/bots/:id/documents", ragController.UploadDocument)
		api.GET("/bots/:id/documents", ragController.ListDocuments)
		api.POST("/bots/:id/search", ragController.SearchKnowledge)
		api.POST("/bots/:id/query", ragController.QueryBot)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Knowledge service starting on %s", addr)
	log.Printf("MongoDB: %s", cfg.MongoDatabase)
	log.Printf("Embedding model: %s", cfg.EmbeddingModel)
	log.Printf("Environment: %s", cfg.Environment)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func runEvaluation() {
	log.Println("Starting evaluation mode...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := storage.NewMongoStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()

	botID := ""
	if len(os.Args) > 2 {
		botID = os.Args[2]
		log.Printf("Using provided bot ID: %s", botID)
	} else {
		bots, err := store.ListBots(context.TODO())
		if err != nil || len(bots) == 0 {
			log.Fatalf("No bots found in database. Please create a bot and upload documents first.")
		}
		botID = bots[0].ID.Hex()
		log.Printf("Using first bot from database: %s (%s)", bots[0].Name, botID)
	}

	datasetPath := "evaluation/dataset.json"
	questions, err := evaluation.LoadDataset(datasetPath)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Loaded %d questions from %s", len(questions), datasetPath)

	evaluator := evaluation.NewEvaluator(cfg, store)

	report, err := evaluator.Evaluate(questions, botID)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	evaluation.PrintSummary(report)

	outputFile := "evaluation/results/baseline.json"
	if err := evaluation.SaveReport(report, outputFile); err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}

	log.Printf("Evaluation complete! Results saved to %s", outputFile)
}
