package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/JerinDevasia/CodeLab/chat"
	"github.com/JerinDevasia/CodeLab/docsync"
	"github.com/JerinDevasia/CodeLab/hub"
	"github.com/JerinDevasia/CodeLab/presence"
	"github.com/JerinDevasia/CodeLab/protocol"
	"github.com/JerinDevasia/CodeLab/registry"
	ws "github.com/JerinDevasia/CodeLab/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	setupLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	reg := registry.New()
	dir := hub.NewDirectory()
	router := hub.NewRouter(dir)
	pc := presence.NewCoordinator(dir, router)
	dc := docsync.NewCoordinator(reg, dir)
	cr := chat.NewRelay(dir, router)
	handler := protocol.NewHandler(reg, dir, router, pc, dc, cr)

	r := chi.NewRouter()
	r.Get("/ws", wsHandler(reg, handler))
	r.Get("/healthz", healthHandler)
	r.Get("/stats", statsHandler(reg, dir))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func wsHandler(reg *registry.Registry, handler *protocol.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(uuid.New().String(), conn, reg, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(reg *registry.Registry, dir *hub.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, members := dir.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"rooms":       rooms,
			"members":     members,
			"connections": reg.Count(),
		})
	}
}
