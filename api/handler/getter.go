package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hioscollector/hioscollector/internal/hios"
	"github.com/hioscollector/hioscollector/internal/hios/parse"
	"github.com/hioscollector/hioscollector/internal/service"
	"github.com/hioscollector/hioscollector/pkg/logger"
	"gorm.io/gorm"
)

// GetterHandler exposes one endpoint per driver capability.
type GetterHandler struct {
	collector *service.CollectorService
}

// NewGetterHandler creates the handler.
func NewGetterHandler(collector *service.CollectorService) *GetterHandler {
	return &GetterHandler{collector: collector}
}

// writeGetterError maps the driver error taxonomy onto HTTP status codes.
func writeGetterError(c *gin.Context, err error) {
	var (
		connectErr   *hios.ConnectError
		timeoutErr   *hios.TimeoutError
		transportErr *hios.TransportError
		notConnected *hios.NotConnectedError
		parseErr     *parse.ParseError
		normErr      *hios.NormalizationError
	)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.As(err, &connectErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{Code: "CONNECT_FAILED", Message: err.Error()})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Code: "DEVICE_TIMEOUT", Message: err.Error()})
	case errors.As(err, &transportErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{Code: "TRANSPORT_FAILED", Message: err.Error()})
	case errors.As(err, &notConnected):
		c.JSON(http.StatusConflict, ErrorResponse{Code: "NOT_CONNECTED", Message: err.Error()})
	case errors.As(err, &parseErr):
		logger.Errorf("device output parse failure: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "PARSE_FAILED", Message: err.Error()})
	case errors.As(err, &normErr):
		logger.Errorf("device output normalization failure: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "NORMALIZE_FAILED", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "COLLECT_FAILED", Message: err.Error()})
	}
}

// Facts returns the device identity snapshot.
func (h *GetterHandler) Facts(c *gin.Context) {
	facts, err := h.collector.Facts(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeGetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: facts})
}

// Interfaces returns the port table.
func (h *GetterHandler) Interfaces(c *gin.Context) {
	ifaces, err := h.collector.Interfaces(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeGetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: ifaces})
}

// InterfacesIP returns IP bindings grouped by interface.
func (h *GetterHandler) InterfacesIP(c *gin.Context) {
	bindings, err := h.collector.InterfacesIP(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeGetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: bindings})
}

// ARPTable returns the ARP snapshot.
func (h *GetterHandler) ARPTable(c *gin.Context) {
	entries, err := h.collector.ARPTable(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeGetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: entries})
}

// Config returns the configuration snapshot verbatim.
func (h *GetterHandler) Config(c *gin.Context) {
	snapshot, err := h.collector.Config(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeGetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: snapshot})
}

// Alive probes device liveness. The probe itself never fails; only
// inventory lookups can error here.
func (h *GetterHandler) Alive(c *gin.Context) {
	result, err := h.collector.Alive(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: result})
}

// CollectAllFacts sweeps facts from every inventory device in parallel.
func (h *GetterHandler) CollectAllFacts(c *gin.Context) {
	results, err := h.collector.CollectAllFacts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "COLLECT_FAILED", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: results})
}
