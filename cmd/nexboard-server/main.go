package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/nexboard/nexboard/internal/activity"
	activityrepo "github.com/nexboard/nexboard/internal/activity/repositoryimpl"
	authrepo "github.com/nexboard/nexboard/internal/auth/repositoryimpl"
	"github.com/nexboard/nexboard/internal/comment"
	commentrepo "github.com/nexboard/nexboard/internal/comment/repositoryimpl"
	"github.com/nexboard/nexboard/internal/config"
	"github.com/nexboard/nexboard/internal/eventbus"
	"github.com/nexboard/nexboard/internal/member"
	memberrepo "github.com/nexboard/nexboard/internal/member/repositoryimpl"
	"github.com/nexboard/nexboard/internal/project"
	projectrepo "github.com/nexboard/nexboard/internal/project/repositoryimpl"
	"github.com/nexboard/nexboard/internal/task"
	taskrepo "github.com/nexboard/nexboard/internal/task/repositoryimpl"
	userrepo "github.com/nexboard/nexboard/internal/user/repositoryimpl"
	"github.com/nexboard/nexboard/internal/workspace"
	workspacerepo "github.com/nexboard/nexboard/internal/workspace/repositoryimpl"
	"github.com/nexboard/nexboard/pkg/clog"
	"github.com/nexboard/nexboard/pkg/sentinel"
	"github.com/nexboard/nexboard/pkg/storage"

	server "github.com/nexboard/nexboard/internal"
)

var (
	app      = kingpin.New("nexboard-server", "nexboard project-management API server")
	watchCmd = app.Command("watch", "Supervise the server and restart it when the binary is replaced.").Default()
	runCmd   = app.Command("run", "Run the API server in the foreground.")
)

func main() {
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case runCmd.FullCommand():
		runServer()
	case watchCmd.FullCommand():
		sentinel.Run()
	}
}

func runServer() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	sessionRepo := authrepo.NewYAMLRepository(store)
	userRepo := userrepo.NewYAMLRepository(store)
	workspaceRepo := workspacerepo.NewYAMLRepository(store)
	memberRepo := memberrepo.NewYAMLRepository(store)
	projectRepo := projectrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)
	commentRepo := commentrepo.NewYAMLRepository(store)
	likeRepo := commentrepo.NewYAMLLikeRepository(store)
	activityRepo := activityrepo.NewYAMLRepository(store)

	// Setup servers
	workspaceServer := workspace.NewServer(workspaceRepo, memberRepo, bus)
	memberServer := member.NewServer(memberRepo, userRepo, bus)
	projectServer := project.NewServer(projectRepo, memberRepo, userRepo, taskRepo, bus)
	taskServer := task.NewServer(taskRepo, memberRepo, userRepo, project.NewResolver(projectRepo), bus)
	commentServer := comment.NewServer(commentRepo, likeRepo, taskRepo, memberRepo, userRepo, bus)
	activityServer := activity.NewServer(activityRepo, userRepo, taskRepo, projectRepo, workspaceRepo)

	recorder := activity.NewRecorder(activityRepo, bus)

	srv := server.NewServer(
		env,
		sessionRepo,
		userRepo,
		workspaceServer,
		memberServer,
		projectServer,
		taskServer,
		commentServer,
		activityServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go recorder.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
