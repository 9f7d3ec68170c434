package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkeye/Chat/internal/adapters/rtc"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	orch *orch.Orchestrator
	cfg  *config.Config
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *handlers) listRooms(c *gin.Context) {
	var rooms []domain.RoomInfo
	if err := h.orch.Do(c.Request.Context(), func() { rooms = h.orch.Rooms() }); err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *handlers) listMembers(c *gin.Context) {
	room := domain.RoomID(c.Param("roomId"))
	var members []domain.Member
	if err := h.orch.Do(c.Request.Context(), func() { members = h.orch.Presence.Members(room) }); err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, members)
}

// evictRoom is called by the room CRUD service when a room is deleted.
func (h *handlers) evictRoom(c *gin.Context) {
	room := domain.RoomID(c.Param("roomId"))
	if err := h.orch.Submit(c.Request.Context(), orch.EvictRoom{Room: room}); err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: err.Error()})
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(room)).Msg("eviction requested")
	c.Status(http.StatusAccepted)
}

// uploadFormSlack covers multipart boundaries and the form fields that travel
// alongside the file.
const uploadFormSlack = 64 << 10

type uploadResponse struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// upload stores a file and returns a reference for a fileUploaded event.
func (h *handlers) upload(c *gin.Context) {
	if h.cfg.Upload.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxSize+uploadFormSlack)
	}
	file, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("File size exceeds maximum of %d bytes", h.cfg.Upload.MaxSize),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No file uploaded"})
		return
	}
	if h.cfg.Upload.MaxSize > 0 && file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("File size exceeds maximum of %d bytes", h.cfg.Upload.MaxSize),
		})
		return
	}

	name := filepath.Base(file.Filename)
	name = strings.ReplaceAll(name, " ", "_")
	stored := uuid.NewString() + "-" + name

	if err := os.MkdirAll(h.cfg.Upload.Dir, 0o755); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create upload dir")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "upload_failed"})
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(h.cfg.Upload.Dir, stored)); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save upload")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "upload_failed"})
		return
	}

	typ := c.PostForm("type")
	if typ == "" {
		typ = string(domain.MessageFile)
	}
	log.Info().Str("module", "adapters.http").Str("file", stored).Int64("size", file.Size).Msg("file uploaded")
	c.JSON(http.StatusOK, uploadResponse{
		URL:  strings.TrimRight(h.cfg.Upload.PublicURL, "/") + "/uploads/" + stored,
		Type: typ,
	})
}

func (h *handlers) rtcConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": rtc.Configuration(h.cfg.ICEServers).ICEServers})
}
