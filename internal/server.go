package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/nexboard/nexboard/internal/activity"
	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/comment"
	"github.com/nexboard/nexboard/internal/config"
	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/project"
	"github.com/nexboard/nexboard/internal/task"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/internal/workspace"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/clog"
)

type Server struct {
	server          *http.Server
	env             *config.Env
	sessions        auth.Repository
	users           user.Repository
	workspaceServer *workspace.Server
	memberServer    *member.Server
	projectServer   *project.Server
	taskServer      *task.Server
	commentServer   *comment.Server
	activityServer  *activity.Server
}

func NewServer(
	env *config.Env,
	sessions auth.Repository,
	users user.Repository,
	workspaceServer *workspace.Server,
	memberServer *member.Server,
	projectServer *project.Server,
	taskServer *task.Server,
	commentServer *comment.Server,
	activityServer *activity.Server,
) *Server {
	return &Server{
		env:             env,
		sessions:        sessions,
		users:           users,
		workspaceServer: workspaceServer,
		memberServer:    memberServer,
		projectServer:   projectServer,
		taskServer:      taskServer,
		commentServer:   commentServer,
		activityServer:  activityServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext, so
// cancelling it (e.g. on shutdown signal) also cancels in-flight request
// contexts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
			auth.SessionMiddleware(s.sessions, s.users),
		)
		r.Route("/workspaces", s.workspaceServer.Routes)
		r.Route("/members", s.memberServer.Routes)
		r.Route("/projects", s.projectServer.Routes)
		r.Route("/tasks", s.taskServer.Routes)
		r.Route("/comments", s.commentServer.Routes)
		r.Route("/activities", s.activityServer.Routes)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(mux), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
