package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamhub/internal/middleware"
)

// HealthChecker はDB疎通確認に必要なインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	Metrics        middleware.HTTPMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// サーバー（ワークスペース）
	ServerService ServerServiceInterface

	// プロジェクト管理
	ProjectService       ProjectServiceInterface
	ProjectMemberService ProjectMemberServiceInterface
	MilestoneService     MilestoneServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → SecurityHeadersMiddleware → CORSMiddleware
//	→ LoggingMiddleware → MetricsMiddleware
//	→ SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）と運用ルート（/healthz, /metrics）は
// ミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Recovery ミドルウェアを最上位に適用（panicから全ルートを守る）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	serverHandler := NewServerHandler(deps.ServerService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	pmHandler := NewProjectMemberHandler(deps.ProjectMemberService)
	milestoneHandler := NewMilestoneHandler(deps.MilestoneService)

	// --- 認証不要のルート ---

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// ヘルスチェック（コンテナオーケストレータ向け）
	r.Get("/healthz", newHealthzHandler(deps.HealthChecker))

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// サーバー管理
		r.Route("/api/servers", func(r chi.Router) {
			r.Get("/", serverHandler.List)
			r.Post("/", serverHandler.Create)

			r.Route("/{serverId}", func(r chi.Router) {
				r.Get("/", serverHandler.Get)

				// プロジェクト管理
				r.Route("/projects", func(r chi.Router) {
					r.Get("/", projectHandler.List)
					// POST - プロジェクト作成（作成専用レート制限を追加）
					r.With(deps.RateLimiter.ProjectCreationMiddleware()).Post("/", projectHandler.Create)

					r.Route("/{projectId}", func(r chi.Router) {
						r.Get("/", projectHandler.Get)
						r.Patch("/", projectHandler.Update)
						r.Delete("/", projectHandler.Delete)

						// プロジェクト参加者管理
						r.Route("/members", func(r chi.Router) {
							r.Get("/", pmHandler.List)
							r.Post("/", pmHandler.Add)
							r.Delete("/{memberId}", pmHandler.Remove)
						})

						// マイルストーン管理
						r.Route("/milestones", func(r chi.Router) {
							r.Get("/", milestoneHandler.List)
							r.Post("/", milestoneHandler.Create)

							r.Route("/{milestoneId}", func(r chi.Router) {
								r.Get("/", milestoneHandler.Get)
								r.Patch("/", milestoneHandler.Update)
								r.Delete("/", milestoneHandler.Delete)
							})
						})
					})
				})
			})
		})
	})

	return r
}

// newHealthzHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthzHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "ng"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
