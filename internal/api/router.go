package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/tabextract/internal/api/handler"
	"github.com/timmy/tabextract/internal/api/middleware"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/session"
)

// Dependencies groups what the router wires into handlers.
type Dependencies struct {
	Jobs        handler.JobRunner
	Session     *session.Session
	Surveys     handler.SurveyLister
	Audit       handler.JobLister     // nil when the database is disabled
	Archive     handler.ArchiveReader // nil when storage is disabled
	MaxFileSize int64
	MaxFiles    int
	CORS        middleware.CORSConfig
	Logger      *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Dependencies, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	if deps.MaxFileSize > 0 && deps.MaxFiles > 0 {
		r.MaxMultipartMemory = deps.MaxFileSize * int64(deps.MaxFiles)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(deps.CORS))

	healthHandler := handler.NewHealthHandler(deps.Session)
	catalogHandler := handler.NewCatalogHandler(deps.Surveys)
	jobHandler := handler.NewJobHandler(deps.Jobs, deps.Session, deps.Audit, deps.Archive, deps.MaxFileSize)
	historyHandler := handler.NewHistoryHandler(deps.Session)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Choices
		v1.GET("/models", catalogHandler.Models)
		v1.GET("/surveys", catalogHandler.Surveys)

		// Jobs
		v1.POST("/jobs/files", jobHandler.CreateFileJob)
		v1.POST("/jobs/existing", jobHandler.CreateExistingJob)
		v1.GET("/jobs/status", jobHandler.Status)
		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/:id", jobHandler.GetJob)
		v1.GET("/jobs/:id/archive", jobHandler.DownloadArchive)

		// History and results
		v1.GET("/history", historyHandler.List)
		v1.GET("/history/:id", historyHandler.Get)
		v1.GET("/history/:id/export", historyHandler.Export)
		v1.GET("/results/latest", historyHandler.Latest)
		v1.GET("/results/latest/export", historyHandler.ExportLatest)
	}

	return r
}
