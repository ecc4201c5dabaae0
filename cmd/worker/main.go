package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"asistencia/internal/audit"
	"asistencia/internal/config"
	"asistencia/internal/queue"
	"asistencia/internal/store"
)

// Worker consumes attendance events and appends audit trail rows.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisOpTimeout)

	if !queue.CrossProcess(cfg.QueueBackend) {
		log.Printf("warning: QUEUE_BACKEND=%s is process-local; events published by the API will not reach this worker", cfg.QueueBackend)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "asistencia:registros")
	}

	repo := audit.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "asistencia" {
			continue
		}

		var evt audit.Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad message body: %v", err)
			continue
		}

		if err := repo.Append(ctx, evt); err != nil {
			log.Printf("audit append failed for alumno %d clase %d: %v", evt.AlumnoID, evt.ClaseID, err)
			continue
		}
		log.Printf("audit recorded: alumno %d clase %d fecha %s (%s)", evt.AlumnoID, evt.ClaseID, evt.Fecha, evt.Metodo)
	}

	log.Println("worker stopped")
}
