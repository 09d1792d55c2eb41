package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/config"
	"github.com/BuzzLyutic/task-tracker-api/internal/handler"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/migrations"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.") // Fatal потому что дальнейшая работа теряет смысл
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	// Накатываем миграции
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("Migrations failed: ", zap.Error(err))
	}

	// Репозитории и сервисы
	taskRepo := repo.NewTaskRepo(pool)
	commentRepo := repo.NewCommentRepo(pool)
	attachmentRepo := repo.NewAttachmentRepo(pool)
	lookupRepo := repo.NewLookupRepo(pool)

	taskService := service.NewTaskService(taskRepo)
	commentService := service.NewCommentService(taskRepo, commentRepo)
	attachmentService := service.NewAttachmentService(taskRepo, attachmentRepo, cfg.UploadDir, logger)
	lookupService := service.NewLookupService(lookupRepo)

	taskHandler := handler.NewTaskHandler(taskService, logger, cfg.DefaultUserID)
	commentHandler := handler.NewCommentHandler(commentService, logger, cfg.DefaultUserID)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, logger, cfg.DefaultUserID)
	lookupHandler := handler.NewLookupHandler(lookupService, logger)

	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api", func(r chi.Router) {
		// Справочники для селектов
		r.Get("/users", lookupHandler.Users)
		r.Get("/categories", lookupHandler.Categories)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/counts", taskHandler.Counts)
			r.Get("/deleted", taskHandler.Deleted)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Patch("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
				r.Post("/restore", taskHandler.Restore)

				r.Get("/comments", commentHandler.List)
				r.Post("/comments", commentHandler.Create)
				r.Patch("/comments/{commentID}", commentHandler.Update)
				r.Delete("/comments/{commentID}", commentHandler.Delete)

				r.Get("/attachments", attachmentHandler.List)
				r.Post("/attachments", attachmentHandler.Upload)
			})
		})

		r.Get("/attachments/{id}/download", attachmentHandler.Download)
		r.Delete("/attachments/{id}", attachmentHandler.Destroy)
	})

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}

func runMigrations(databaseURL string) error {
	db, err := goose.OpenDBWithDriver("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
