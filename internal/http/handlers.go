package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/chainspan/chainspan/internal/trace"
	"github.com/chainspan/chainspan/internal/validate"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers contains all HTTP handlers for the read-only query surface.
type Handlers struct {
	tracer *trace.Tracer
	logger *zap.Logger
}

// NewHandlers creates a new handler set.
func NewHandlers(tracer *trace.Tracer, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		tracer: tracer,
		logger: logger,
	}
}

// Root handles health check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "chainspan",
		"version": "0.3.0",
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"tracing_enabled": h.tracer.IsEnabled(),
		"chain_count":     h.tracer.GetChainCount(),
		"active_spans":    h.tracer.ActiveCount(),
	})
}

// ListChains returns stored chains, newest first, paginated.
func (h *Handlers) ListChains(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	chains := h.tracer.GetAllChains()
	// Newest first for inspection.
	for i, j := 0, len(chains)-1; i < j; i, j = i+1, j-1 {
		chains[i], chains[j] = chains[j], chains[i]
	}

	total := len(chains)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"chains":    chains[start:end],
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// GetChain fetches the chain containing any given id, active or stored.
func (h *Handlers) GetChain(c *gin.Context) {
	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}
	c.JSON(http.StatusOK, chain)
}

// ValidateChain runs structural validation on a chain.
func (h *Handlers) ValidateChain(c *gin.Context) {
	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}
	c.JSON(http.StatusOK, validate.ValidateChain(chain))
}

// ChainStatistics computes aggregate statistics for a chain.
func (h *Handlers) ChainStatistics(c *gin.Context) {
	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}
	c.JSON(http.StatusOK, validate.ChainStatistics(chain))
}

// LayerCoverage checks a chain against a required layer list given as
// ?layers=L1,L2 (tags or short codes).
func (h *Handlers) LayerCoverage(c *gin.Context) {
	layersParam := c.Query("layers")
	if layersParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "layers query parameter required"})
		return
	}

	var required []trace.Layer
	for _, ref := range strings.Split(layersParam, ",") {
		layer, err := trace.ParseLayer(ref)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		required = append(required, layer)
	}

	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}
	c.JSON(http.StatusOK, validate.ValidateLayerCoverage(chain, required))
}

// LayerNodes returns a chain's nodes attributed to one layer.
func (h *Handlers) LayerNodes(c *gin.Context) {
	layer, err := trace.ParseLayer(c.Param("layer"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}

	nodes := chain.GetLayerNodes(layer)
	if nodes == nil {
		nodes = []*trace.Node{}
	}
	c.JSON(http.StatusOK, gin.H{
		"layer": layer.Tag(),
		"nodes": nodes,
	})
}

// PathToRoot returns the root-to-node path for a node within a chain.
func (h *Handlers) PathToRoot(c *gin.Context) {
	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}

	path := chain.GetPathToRoot(c.Param("node"))
	if path == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found in chain"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

// ExportChain serves a chain snapshot in its natural JSON serialization.
func (h *Handlers) ExportChain(c *gin.Context) {
	chain, ok := h.tracer.GetChain(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}

	payload, err := sonic.Marshal(chain)
	if err != nil {
		h.logger.Error("chain export failed", zap.String("root_id", chain.RootID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+chain.RootID+`.json"`)
	c.Data(http.StatusOK, "application/json", payload)
}

// EnableTracing turns span creation on.
func (h *Handlers) EnableTracing(c *gin.Context) {
	h.tracer.Enable()
	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

// DisableTracing stops new span creation.
func (h *Handlers) DisableTracing(c *gin.Context) {
	h.tracer.Disable()
	c.JSON(http.StatusOK, gin.H{"enabled": false})
}

// TracingStatus reports the process-wide toggle.
func (h *Handlers) TracingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.tracer.IsEnabled()})
}

// ClearChains drops every stored chain.
func (h *Handlers) ClearChains(c *gin.Context) {
	h.tracer.ClearChains()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
