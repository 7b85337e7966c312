package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hiko-crawler/buyforme"
	"hiko-crawler/config"
	"hiko-crawler/events"
	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/services"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

// CrawlRunner starts a crawl for one source.
type CrawlRunner interface {
	Run(ctx context.Context, source models.Source) (*models.IngestResult, error)
	Settings(source models.Source) config.CrawlSettings
}

// Server exposes the admin HTTP surface.
type Server struct {
	crawler   CrawlRunner
	store     storage.HotDealStore
	states    storage.StateStore
	sweeper   *services.Sweeper
	buyForMe  *buyforme.Repository
	publisher events.Publisher
	metrics   *metrics.Registry
	logger    *utils.Logger
	now       func() time.Time
}

// Options collects the Server's collaborators. Publisher and Metrics may
// be nil.
type Options struct {
	Crawler   CrawlRunner
	Store     storage.HotDealStore
	States    storage.StateStore
	Sweeper   *services.Sweeper
	BuyForMe  *buyforme.Repository
	Publisher events.Publisher
	Metrics   *metrics.Registry
	Logger    *utils.Logger
}

func NewServer(opts Options) *Server {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	return &Server{
		crawler:   opts.Crawler,
		store:     opts.Store,
		states:    opts.States,
		sweeper:   opts.Sweeper,
		buyForMe:  opts.BuyForMe,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/sources", s.listSources)
		v1.POST("/crawls/:source", s.startCrawl)
		v1.GET("/crawls/:source/state", s.crawlState)
		v1.POST("/sweeps", s.sweep)

		v1.GET("/hotdeals", s.listHotDeals)
		v1.DELETE("/hotdeals/:id", s.deleteHotDeal)

		v1.POST("/buyforme", s.createBuyForMe)
		v1.GET("/buyforme/:id", s.getBuyForMe)
		v1.POST("/buyforme/:id/status", s.updateBuyForMeStatus)
	}
	return r
}

// requestLogger logs every request with its status and latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		format := "[api] %s %s %s -> %d (%v)"
		args := []any{requestID, c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond)}
		switch {
		case status >= 500:
			s.logger.Error(format, args...)
		case status >= 400:
			s.logger.Warn(format, args...)
		default:
			s.logger.Debug(format, args...)
		}
	}
}

func errorResponse(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
