package simulator

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Mount registers the controller REST endpoints on r.
func (n *Network) Mount(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	v1.GET("/tenants", n.handleTenants)
	v1.GET("/tenants/:tenant/vbsps", n.handleVBSPs)
	v1.GET("/tenants/:tenant/vbsps/:vbsp/ues/:rnti/ue_rrc_measurements", n.handleMeasurements)
	v1.GET("/vbsps/:vbsp/ues", n.handleUEs)
	v1.GET("/vbsps/:vbsp/ues/:rnti", n.handleUE)
}

func (n *Network) handleTenants(c *gin.Context) {
	c.JSON(http.StatusOK, n.Tenants())
}

func (n *Network) handleVBSPs(c *gin.Context) {
	vbsps, err := n.VBSPs(c.Param("tenant"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vbsps)
}

func (n *Network) handleUEs(c *gin.Context) {
	ues, err := n.UEs(c.Param("vbsp"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ues)
}

func (n *Network) handleUE(c *gin.Context) {
	rnti, ok := parseRNTI(c)
	if !ok {
		return
	}
	ue, err := n.UE(c.Param("vbsp"), rnti)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ue)
}

func (n *Network) handleMeasurements(c *gin.Context) {
	rnti, ok := parseRNTI(c)
	if !ok {
		return
	}
	meas, err := n.Measurements(c.Param("tenant"), c.Param("vbsp"), rnti)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meas)
}

func parseRNTI(c *gin.Context) (int, bool) {
	rnti, err := strconv.Atoi(c.Param("rnti"))
	if err != nil || rnti < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rnti " + strconv.Quote(c.Param("rnti"))})
		return 0, false
	}
	return rnti, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownTenant), errors.Is(err, ErrUnknownVBSP), errors.Is(err, ErrUnknownUE):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
