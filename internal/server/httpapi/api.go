// Package httpapi is the HTTP transport: gin routes, bearer-token
// authentication, access logging, CORS and the mapping from service errors
// to status codes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/server/metrics"
	"github.com/violetear/api/internal/server/models"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type ReportService interface {
	Submit(ctx context.Context, user *models.User, payload []byte, identifiers []string) (int64, error)
	DiscardFile(ctx context.Context, user *models.User, reportID int64) error
	List(ctx context.Context, user *models.User) ([]models.Report, error)
	Get(ctx context.Context, user *models.User, reportID int64) (*models.Report, error)
	ListTasks(ctx context.Context, user *models.User, reportID int64) ([]models.Task, error)
	ArchiveURL(ctx context.Context, user *models.User, reportID int64) (string, error)
}

type ProfileService interface {
	List(ctx context.Context) ([]models.Profile, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options are the transport limits.
type Options struct {
	MaxUploadSize int64
	UploadTimeout time.Duration
	CORSOrigin    string
}

// maxCredentialsBody caps register/login bodies.
const maxCredentialsBody = 4 << 10

type API struct {
	users    UserService
	reports  ReportService
	profiles ProfileService
	db       Pinger
	log      logging.Logger
	metrics  *metrics.Metrics
	opts     Options
}

func New(us UserService, rs ReportService, ps ProfileService, db Pinger, l logging.Logger, m *metrics.Metrics, opts Options) *API {
	return &API{
		users:    us,
		reports:  rs,
		profiles: ps,
		db:       db,
		log:      l.With("module", "http"),
		metrics:  m,
		opts:     opts,
	}
}

// Handler returns the complete HTTP handler, CORS included.
func (a *API) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestContext(), a.accessLog(), a.instrument())

	r.GET("/", a.banner)
	r.GET("/healthz", a.healthz)
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/register", a.register)
	v1.POST("/login", a.login)
	v1.POST("/logout", a.logout)

	authed := v1.Group("", a.authRequired())
	authed.GET("/profiles", a.listProfiles)
	authed.GET("/reports", a.listReports)
	authed.POST("/reports", a.submitReport)
	authed.GET("/reports/:report_id", a.getReport)
	authed.POST("/reports/:report_id/discard_file", a.discardFile)
	authed.GET("/reports/:report_id/tasks", a.listTasks)
	authed.GET("/reports/:report_id/archive_url", a.archiveURL)

	return cors.New(corsOptions(a.opts.CORSOrigin)).Handler(r)
}

func corsOptions(origin string) cors.Options {
	if origin == "" {
		origin = common.DefaultCORSOrigin
	}
	return cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			common.AuthorizationHeaderName, "Accept", "Accept-Encoding", "Accept-Language",
			"Content-Type", requestIDHeader,
		},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         common.CORSMaxAge,
	}
}
