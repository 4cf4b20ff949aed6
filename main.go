package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/fileset/fileset/pkg/accesspolicy"
	"github.com/fileset/fileset/pkg/adminauth"
	"github.com/fileset/fileset/pkg/audit"
	"github.com/fileset/fileset/pkg/blobstore"
	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/cronjob"
	"github.com/fileset/fileset/pkg/database"
	"github.com/fileset/fileset/pkg/deployqueue"
	"github.com/fileset/fileset/pkg/email"
	"github.com/fileset/fileset/pkg/ingest"
	"github.com/fileset/fileset/pkg/manifeststore"
	"github.com/fileset/fileset/pkg/middleware"
	"github.com/fileset/fileset/pkg/server"
	"github.com/fileset/fileset/pkg/tokenstore"
	"github.com/fileset/fileset/pkg/webhook"
)

func main() {
	cfg := config.Load()
	fmt.Printf("Starting Fileset on %s...\n", cfg.ServerPort)

	storageDriver, err := blobstore.NewS3Driver(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage driver: %v", err)
	}

	var dbConn *sql.DB
	for i := 0; i < 10; i++ {
		dbConn, err = database.Connect(cfg)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v. Retrying in 2s...", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis: %v. Existence/token caches will miss every time.\n", err)
	}

	blobs := blobstore.NewStore(storageDriver, redisClient, cfg)
	tokens := tokenstore.NewStore(dbConn, redisClient)
	manifests := manifeststore.NewStore(dbConn)
	auditService := audit.NewService(dbConn)
	webhookService := webhook.NewService(cfg.WebhookURL)
	emailService := email.NewService(cfg)

	dq, err := deployqueue.NewService(cfg)
	if err != nil {
		log.Printf("Warning: failed to connect to Redis deploy queue: %v. Async notification delivery is disabled.\n", err)
	}

	cronService := cronjob.NewService(manifests, dq, auditService)
	go cronService.Run(context.Background(), 1*time.Minute)

	if dq != nil {
		go func() {
			log.Println("Starting deploy-event delivery worker...")
			for {
				event, err := dq.Dequeue(context.Background())
				if err != nil {
					log.Printf("Deploy queue worker error: %v\n", err)
					time.Sleep(5 * time.Second)
					continue
				}

				log.Printf("Worker: delivering deploy event %s for branch %s\n", event.Action, event.Branch)
				if err := webhookService.Notify(context.Background(), webhook.Event{
					Action:     event.Action,
					Branch:     event.Branch,
					ManifestID: event.ManifestID,
					Timestamp:  time.Now(),
					User:       event.User,
				}); err != nil {
					log.Printf("Worker: webhook delivery failed: %v\n", err)
				}
				if emailService.IsEnabled() && cfg.AdminEmail != "" {
					if err := emailService.SendDeployNotification(cfg.AdminEmail, event.Branch, event.ManifestID); err != nil {
						log.Printf("Worker: deploy notification email failed: %v\n", err)
					}
				}
			}
		}()
	}

	adminAuthService := adminauth.NewService(cfg)
	adminHandler := adminauth.NewHandler(adminAuthService, tokens)
	policyService := accesspolicy.NewService(cfg.AuthorizedUsers, cfg.AuthorizedOrgs)

	fsServer := server.New(cfg, blobs, manifests, "fileset")
	ingestHandler := ingest.NewHandler(blobs, manifests, cronService, dq, webhookService, auditService)

	redirectTrie := middleware.BuildRedirectTrie(cfg.Redirects)
	chain := middleware.Chain(
		middleware.PathologicalInput,
		middleware.CanonicalDomain(cfg),
		middleware.HTTPSUpgrade(cfg),
		middleware.AuthGate(cfg, adminAuthService, policyService),
		middleware.Redirects(redirectTrie),
	)

	router := mux.NewRouter()
	router.HandleFunc("/_fs/login", adminHandler.Login).Methods("POST")
	router.HandleFunc("/_fs/logout", adminHandler.Logout).Methods("POST")
	router.HandleFunc("/_fs/token", adminHandler.MintToken).Methods("GET")
	ingest.Register(router, ingestHandler, cfg, tokens)
	router.PathPrefix("/").Handler(fsServer)

	globalMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("Request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}

	log.Fatal(http.ListenAndServe(cfg.ServerPort, globalMiddleware(chain(router))))
}
