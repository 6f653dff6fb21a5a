package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"student-api/internal/domain"
	"student-api/internal/repository"
	"student-api/internal/service"
)

const timeLayout = time.RFC3339

// maxBodyBytes bounds student payloads.
const maxBodyBytes = 1 << 20

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "list students", err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) createStudent(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}

	id, err := h.students.Create(c.Request.Context(), fields)
	if err != nil {
		h.internalError(c, "create student", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Student added", "id": id})
}

func (h *Handler) updateStudent(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}

	updated, err := h.students.Update(c.Request.Context(), c.Param("id"), fields)
	switch {
	case err == nil && updated:
		c.JSON(http.StatusOK, message("Student updated"))
	case err == nil, errors.Is(err, repository.ErrInvalidID):
		c.JSON(http.StatusNotFound, message("Not found or no changes"))
	case errors.Is(err, service.ErrNoFields):
		c.JSON(http.StatusBadRequest, message("No fields to update"))
	default:
		h.internalError(c, "update student", err)
	}
}

func (h *Handler) deleteStudent(c *gin.Context) {
	deleted, err := h.students.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil && deleted:
		c.JSON(http.StatusOK, message("Student deleted"))
	case err == nil, errors.Is(err, repository.ErrInvalidID):
		c.JSON(http.StatusNotFound, message("Student not found"))
	default:
		h.internalError(c, "delete student", err)
	}
}

// bindFields decodes a JSON object body into record fields, answering 400 on failure.
func (h *Handler) bindFields(c *gin.Context) (domain.Fields, bool) {
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBodyBytes))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		c.JSON(http.StatusBadRequest, message("Request body must be a JSON object"))
		return nil, false
	}
	if dec.More() {
		c.JSON(http.StatusBadRequest, message("Request body must be a single JSON object"))
		return nil, false
	}

	fields, err := domain.DecodeFields(raw)
	switch {
	case err == nil:
		return fields, true
	case errors.Is(err, domain.ErrReservedField):
		c.JSON(http.StatusBadRequest, message("Field names must not be _id, be empty, start with $ or contain dots"))
	case errors.Is(err, domain.ErrUnsupportedValue):
		c.JSON(http.StatusBadRequest, message("Field values must be strings, numbers, booleans, null or arrays"))
	default:
		c.JSON(http.StatusBadRequest, message("Invalid request body"))
	}
	return nil, false
}

type exportResponse struct {
	Message  string `json:"message,omitempty"`
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
	Records  int    `json:"records,omitempty"`
	Size     int64  `json:"size"`
	// LastModified is only known for listed snapshots.
	LastModified *string `json:"last_modified,omitempty"`
}

func exportToResponse(e service.Export) exportResponse {
	resp := exportResponse{
		Key:      e.Key,
		Location: e.Location,
		URL:      e.URL,
		Records:  e.Records,
		Size:     e.Size,
	}
	if e.LastModified != nil && !e.LastModified.IsZero() {
		v := e.LastModified.UTC().Format(timeLayout)
		resp.LastModified = &v
	}
	return resp
}

func (h *Handler) exportStudents(c *gin.Context) {
	exp, err := h.students.Export(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportDisabled) {
			c.JSON(http.StatusNotFound, message("Export is not configured"))
			return
		}
		h.internalError(c, "export students", err)
		return
	}

	resp := exportToResponse(*exp)
	resp.Message = "Export created"
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) listExports(c *gin.Context) {
	exports, err := h.students.ListExports(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportDisabled) {
			c.JSON(http.StatusNotFound, message("Export is not configured"))
			return
		}
		h.internalError(c, "list exports", err)
		return
	}

	resp := make([]exportResponse, len(exports))
	for i := range exports {
		resp[i] = exportToResponse(exports[i])
	}
	c.JSON(http.StatusOK, resp)
}
