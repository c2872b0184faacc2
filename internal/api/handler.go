package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mr1hm/go-flood-watch/internal/broadcast"
	"github.com/mr1hm/go-flood-watch/internal/csvio"
	"github.com/mr1hm/go-flood-watch/internal/models"
	"github.com/mr1hm/go-flood-watch/internal/report"
	"github.com/mr1hm/go-flood-watch/internal/repository"
	"github.com/mr1hm/go-flood-watch/internal/table"
)

type ExportConfig struct {
	Formatter *report.Formatter
	// Location is the display zone for CSV timestamps and file dates.
	Location *time.Location
	FileStem string
}

type Handler struct {
	repo        repository.ObservationRepository
	broadcaster *broadcast.Broadcaster
	export      ExportConfig
	now         func() time.Time
	keepalive   time.Duration
}

func NewHandler(repo repository.ObservationRepository, broadcaster *broadcast.Broadcaster, export ExportConfig) *Handler {
	if export.Location == nil {
		export.Location = time.UTC
	}
	if export.Formatter == nil {
		export.Formatter = report.New(report.Config{Location: export.Location})
	}
	if export.FileStem == "" {
		export.FileStem = "flood-observations"
	}
	return &Handler{
		repo:        repo,
		broadcaster: broadcaster,
		export:      export,
		now:         time.Now,
		keepalive:   30 * time.Second,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	obs := r.Group("/api/observations")
	obs.GET("", h.listObservations)
	obs.GET("/summary", h.summary)
	obs.GET("/geojson", h.geoJSON)
	obs.GET("/export", h.exportObservations)
	obs.PATCH("/:id", h.updateObservation)

	r.GET("/api/events", h.events)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseQuery(c *gin.Context) (table.Query, error) {
	col, err := table.ParseColumn(c.Query("sort"))
	if err != nil {
		return table.Query{}, err
	}

	q := table.Query{Search: c.Query("q"), Sort: col}
	switch strings.ToLower(c.Query("order")) {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return table.Query{}, &models.ValidationError{Field: "order", Reason: "must be asc or desc"}
	}
	return q, nil
}

// listTable loads the store and applies the request's table query. It writes
// the error response itself and reports whether the caller may continue.
func (h *Handler) listTable(c *gin.Context) ([]models.Observation, bool) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		slog.Error("error listing observations", "error", err, "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch observations",
		})
		return nil, false
	}
	return q.Apply(list), true
}

func (h *Handler) listObservations(c *gin.Context) {
	rows, ok := h.listTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) summary(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		slog.Error("error listing observations", "error", err, "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch observations",
		})
		return
	}
	c.JSON(http.StatusOK, models.Summarize(list))
}

func (h *Handler) geoJSON(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		slog.Error("error listing observations", "error", err, "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch observations",
		})
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(list))
}

func (h *Handler) updateObservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid observation id"})
		return
	}

	var req models.ObservationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	change, err := h.repo.Update(c.Request.Context(), id, req)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "observation not found"})
		return
	case err != nil:
		slog.Error("error updating observation", "id", id, "error", err, "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update observation"})
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(broadcast.ChangeEvent(change, h.now()))
	}

	slog.Info("observation updated",
		"id", id,
		"from", change.Previous.WarningLevel.String(),
		"to", change.Current.WarningLevel.String(),
		"water_level", change.Current.WaterLevel,
		"request_id", requestID(c),
	)
	c.JSON(http.StatusOK, change.Current)
}

func (h *Handler) exportObservations(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "pdf"))
	if format != "pdf" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be pdf or csv"})
		return
	}

	rows, ok := h.listTable(c)
	if !ok {
		return
	}

	now := h.now()
	var (
		buf         bytes.Buffer
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "pdf":
		contentType = "application/pdf"
		filename = h.export.Formatter.Filename(h.export.FileStem, now)
		err = h.export.Formatter.Render(&buf, rows, now)
	case "csv":
		contentType = "text/csv; charset=utf-8"
		filename = report.Filename(h.export.FileStem, "csv", now, h.export.Location)
		err = csvio.Write(&buf, rows, h.export.Location)
	}
	if err != nil {
		slog.Error("error exporting observations", "format", format, "error", err, "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// bindingMessage turns a bind error into a client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s is %s", jsonName(fe.Field()), fe.Tag()))
		}
		return strings.Join(msgs, "; ")
	}
	return "invalid request body: " + err.Error()
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
