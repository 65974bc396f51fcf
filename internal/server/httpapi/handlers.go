package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/server/models"
	"github.com/violetear/api/internal/server/services"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (a *API) banner(c *gin.Context) {
	c.String(http.StatusOK, "violetear api")
}

func (a *API) healthz(c *gin.Context) {
	if err := a.db.PingContext(c.Request.Context()); err != nil {
		a.log.Warn(c.Request.Context(), "health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (a *API) bindCredentials(c *gin.Context) (credentials, bool) {
	var cr credentials
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCredentialsBody)
	if err := c.ShouldBindJSON(&cr); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid credentials body"})
		return cr, false
	}
	return cr, true
}

func (a *API) register(c *gin.Context) {
	cr, ok := a.bindCredentials(c)
	if !ok {
		return
	}
	token, err := a.users.Register(c.Request.Context(), cr.Username, cr.Password)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (a *API) login(c *gin.Context) {
	cr, ok := a.bindCredentials(c)
	if !ok {
		return
	}
	token, err := a.users.Login(c.Request.Context(), cr.Username, cr.Password)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (a *API) logout(c *gin.Context) {
	if err := a.users.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		a.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (a *API) listProfiles(c *gin.Context) {
	profiles, err := a.profiles.List(c.Request.Context())
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (a *API) listReports(c *gin.Context) {
	reports, err := a.reports.List(c.Request.Context(), currentUser(c))
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// submitReport buffers the raw body (bounded, under the upload timeout) and
// only then hands it to the transactional pipeline.
func (a *API) submitReport(c *gin.Context) {
	if c.Request.ContentLength > a.opts.MaxUploadSize {
		a.abortWithError(c, common.ErrorPayloadTooLarge)
		return
	}

	ctx := c.Request.Context()
	if a.opts.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.UploadTimeout)
		defer cancel()
	}

	payload, err := services.ReadPayload(ctx, c.Request.Body, a.opts.MaxUploadSize)
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	id, err := a.reports.Submit(c.Request.Context(), currentUser(c), payload, c.QueryArray("profiles"))
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report_id": id})
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("report_id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return 0, false
	}
	return id, true
}

func (a *API) getReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	rep, err := a.reports.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (a *API) discardFile(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	if err := a.reports.DiscardFile(c.Request.Context(), currentUser(c), id); err != nil {
		a.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (a *API) listTasks(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	tasks, err := a.reports.ListTasks(c.Request.Context(), currentUser(c), id)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (a *API) archiveURL(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	url, err := a.reports.ArchiveURL(c.Request.Context(), currentUser(c), id)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
