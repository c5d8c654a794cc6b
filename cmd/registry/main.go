package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skyfield/listenerd/handlers"
	"github.com/skyfield/listenerd/internal/database"
	"github.com/skyfield/listenerd/internal/registry"
	"github.com/skyfield/listenerd/internal/validation"
	"github.com/skyfield/listenerd/internal/views"
)

// Standalone registry service: just the validated document store and the
// listener view, no auth stack. Writes run with an anonymous user context,
// so listener_info edits are always rejected; useful for ingest-only
// deployments where stations create documents but never modify them.
func main() {
	port := os.Getenv("REGISTRY_PORT")
	if port == "" {
		port = "5021"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var repo registry.Repository
	var index views.Index
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v), using memory-backed repo", err)
		} else {
			db := client.Database(envOr("MONGODB_DATABASE", "listenerd"))
			repo = registry.NewMongoRepo(db.Collection("documents"))
			index = views.NewMongoIndex(db.Collection("listener_view"))
		}
	}
	if repo == nil {
		repo = registry.NewMemoryRepo()
		index = views.NewMemoryIndex()
	}

	svc := registry.NewService(repo, validation.Default(), index)
	handlers.NewDocsHandler(svc, index, nil).Register(r.Group("/"))

	log.Printf("registry service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
