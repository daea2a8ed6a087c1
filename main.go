package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"meddy-backend/chat"
	"meddy-backend/conn"
	"meddy-backend/openai"
	"meddy-backend/session"
)

func main() {
	_ = godotenv.Load()

	r := gin.Default()
	r.Use(cors.Default())

	ai := openai.NewClient()
	invoker := openai.NewInvoker(ai)

	sessions := session.NewStore()
	if os.Getenv("DB_HOST") != "" {
		if db, err := conn.NewMySQL(); err == nil {
			sessions.SetPersistDB(db)
			log.Printf("session persistence enabled (mysql)")
		} else {
			log.Printf("WARN mysql unavailable, sessions stay in-memory: %v", err)
		}
	}

	h := chat.NewHandler(invoker, sessions)
	h.SetMemoryReset(ai.ResetMemory)
	h.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
