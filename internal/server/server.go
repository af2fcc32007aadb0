// Package server exposes the printing pipeline to the canvasser UI over
// HTTP. The voter store lives in the client app; this surface only accepts
// records, drives the printer, and reports connection state.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/Shiro005/electionapp-sub000/internal/printing"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Connections is the manual connect/disconnect surface of the shared
// printer connection.
type Connections interface {
	Connected() bool
	Connect(ctx context.Context) error
	Disconnect() error
}

// PrintService runs one receipt through the pipeline.
type PrintService interface {
	Print(ctx context.Context, req printing.Request) (printing.Result, error)
}

type StatusResponse struct {
	Connected bool `json:"connected"`
}

type PrintResponse struct {
	Success bool   `json:"success"`
	State   string `json:"state"`
	Message string `json:"message"`
}

type Server struct {
	conns          Connections
	printer        PrintService
	exportPassword string
	log            zerolog.Logger
}

func New(conns Connections, printer PrintService, exportPassword string, log zerolog.Logger) *Server {
	return &Server{
		conns:          conns,
		printer:        printer,
		exportPassword: exportPassword,
		log:            log.With().Str("component", "http").Logger(),
	}
}

// Router builds the gin engine with the full API surface mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// The UI is served from the app bundle, not this server.
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	api.GET("/status", s.getStatus)
	api.POST("/connect", s.postConnect)
	api.POST("/disconnect", s.postDisconnect)
	api.POST("/print", s.postPrint)
	api.GET("/export", s.getExport)
	return r
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Connected: s.conns.Connected()})
}

func (s *Server) postConnect(c *gin.Context) {
	if err := s.conns.Connect(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"connected": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Connected: true})
}

func (s *Server) postDisconnect(c *gin.Context) {
	if err := s.conns.Disconnect(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"connected": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Connected: false})
}

func (s *Server) postPrint(c *gin.Context) {
	var req printing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PrintResponse{Success: false, Message: err.Error()})
		return
	}

	result, err := s.printer.Print(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, printing.ErrNoVoter) || errors.Is(err, printing.ErrEmptyFamilyRoster) {
			status = http.StatusBadRequest
		}
		c.JSON(status, PrintResponse{
			Success: false,
			State:   result.State.String(),
			Message: result.Message,
		})
		return
	}
	c.JSON(http.StatusOK, PrintResponse{
		Success: true,
		State:   result.State.String(),
		Message: result.Message,
	})
}

// getExport guards the record export with the static deployment password.
// The voter store itself is owned by the client app, so a valid password
// still has nothing to hand out from here.
func (s *Server) getExport(c *gin.Context) {
	if c.Query("password") != s.exportPassword {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid password"})
		return
	}
	c.JSON(http.StatusNotImplemented, gin.H{"error": "voter records are stored on the client device"})
}
