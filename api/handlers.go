package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hiko-crawler/buyforme"
	"hiko-crawler/events"
	"hiko-crawler/models"
	"hiko-crawler/scraper"
	"hiko-crawler/storage"
)

type sourceInfo struct {
	Source          models.Source `json:"source"`
	Enabled         bool          `json:"enabled"`
	MaxPages        int           `json:"max_pages"`
	DelayMs         int           `json:"delay_ms"`
	TimeFilterHours int           `json:"time_filter_hours"`
	FetchDetails    bool          `json:"fetch_details"`
}

func (s *Server) listSources(c *gin.Context) {
	out := make([]sourceInfo, 0, len(models.AllSources()))
	for _, src := range models.AllSources() {
		st := s.crawler.Settings(src)
		out = append(out, sourceInfo{
			Source:          src,
			Enabled:         st.Enabled,
			MaxPages:        st.MaxPages,
			DelayMs:         st.DelayMs,
			TimeFilterHours: st.TimeFilterHours,
			FetchDetails:    st.FetchDetails,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}

func (s *Server) startCrawl(c *gin.Context) {
	src, err := models.ParseSource(c.Param("source"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.crawler.Run(c.Request.Context(), src)
	switch {
	case errors.Is(err, scraper.ErrCrawlInProgress):
		errorResponse(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, scraper.ErrUnknownSource):
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":        res.Source,
		"total_crawled": res.TotalCrawled,
		"new_deals":     res.NewDeals,
		"updated_deals": res.UpdatedDeals,
		"errors":        res.Errors,
		"skipped":       res.Skipped,
		"filtered":      res.Filtered,
		"pages":         res.Pages,
		"duration_ms":   res.Duration.Milliseconds(),
	})
}

func (s *Server) crawlState(c *gin.Context) {
	src, err := models.ParseSource(c.Param("source"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.states.LoadState(c.Request.Context(), src)
	if errors.Is(err, storage.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "no crawl recorded for "+string(src))
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) sweep(c *gin.Context) {
	n, err := s.sweeper.SweepExpired(c.Request.Context(), s.now())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": n})
}

func (s *Server) listHotDeals(c *gin.Context) {
	var filter storage.ListFilter

	if v := c.Query("source"); v != "" {
		src, err := models.ParseSource(v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.Source = src
	}
	if v := c.Query("status"); v != "" {
		st := models.DealStatus(v)
		if st != models.StatusActive && st != models.StatusExpired && st != models.StatusDeleted {
			errorResponse(c, http.StatusBadRequest, "unknown status "+strconv.Quote(v))
			return
		}
		filter.Status = st
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	deals, err := s.store.List(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotdeals": deals, "count": len(deals)})
}

func (s *Server) deleteHotDeal(c *gin.Context) {
	now := s.now()
	deal, err := s.store.SoftDelete(c.Request.Context(), c.Param("id"), now)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "hotdeal not found")
		return
	case errors.Is(err, storage.ErrInvalidTransition):
		errorResponse(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if perr := s.publisher.Publish(c.Request.Context(), events.ForDeal(events.TypeDeleted, deal, now)); perr != nil {
		s.logger.Warn("[api] publish delete %s: %v", deal.ID, perr)
	}
	c.JSON(http.StatusOK, deal)
}

type createBuyForMeRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	HotDealID   string `json:"hotdeal_id"`
	ProductURL  string `json:"product_url" binding:"required"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Options     string `json:"options"`
}

func (s *Server) createBuyForMe(c *gin.Context) {
	var body createBuyForMeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	req := &models.BuyForMeRequest{
		UserID:      body.UserID,
		HotDealID:   body.HotDealID,
		ProductURL:  body.ProductURL,
		ProductName: body.ProductName,
		Quantity:    body.Quantity,
		Options:     body.Options,
	}
	if err := s.buyForMe.Create(c.Request.Context(), req); err != nil {
		if errors.Is(err, buyforme.ErrInvalidRequest) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) getBuyForMe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := s.buyForMe.FindByID(c.Request.Context(), id)
	if errors.Is(err, buyforme.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, req)
}

type statusChangeRequest struct {
	Status      models.BuyForMeStatus `json:"status" binding:"required"`
	QuotedPrice int                   `json:"quoted_price"`
}

func (s *Server) updateBuyForMeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body statusChangeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !buyforme.IsKnown(body.Status) {
		errorResponse(c, http.StatusBadRequest, "unknown status "+strconv.Quote(string(body.Status)))
		return
	}

	req, err := s.buyForMe.UpdateStatus(c.Request.Context(), id, body.Status, body.QuotedPrice)
	switch {
	case errors.Is(err, buyforme.ErrNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, buyforme.ErrInvalidTransition):
		errorResponse(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, req)
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		errorResponse(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
