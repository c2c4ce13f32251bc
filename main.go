package main

import (
	"log"
	"os"

	"social-feed/httpapi"
	"social-feed/postfeed"
	"social-feed/postfeed/inmemoryimpl"
	"social-feed/postfeed/mongoimpl"
	"social-feed/postfeed/redisimpl"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	mode := os.Getenv("STORAGE_MODE")
	var manager postfeed.Manager
	switch mode {
	case "", "inmemory":
		manager = inmemoryimpl.NewInMemoryManager()
	case "mongo":
		manager = mongoimpl.NewMongoManager(os.Getenv("MONGO_URL"), os.Getenv("MONGO_DB_NAME"))
	case "cached":
		persistent := mongoimpl.NewMongoManager(os.Getenv("MONGO_URL"), os.Getenv("MONGO_DB_NAME"))
		redisClient := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_URL")})
		manager = redisimpl.NewRedisManager(redisClient, persistent)
	default:
		log.Fatalf("unknown STORAGE_MODE %q", mode)
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}

	srv := httpapi.NewServer(manager, addr)
	log.Printf("feed service listening on %s", addr)
	log.Fatal(srv.ListenAndServe())
}
