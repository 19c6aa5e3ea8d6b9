package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollbook/internal/model"
	"rollbook/internal/queue"
)

type studentPatchRequest struct {
	Name   *string       `json:"name"`
	Status *model.Status `json:"status" binding:"omitempty,attendance_status"`
}

func (h *Handler) updateStudent(c *gin.Context) {
	var req studentPatchRequest
	if err := bind(c, &req); err != nil {
		badBody(c, err)
		return
	}
	st, err := h.tracker.UpdateStudent(c.Request.Context(), c.Param("id"), model.StudentPatch{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.StudentUpdated, EntityID: st.ID, ClassID: st.ClassID, Status: string(st.Status)})
	c.JSON(http.StatusOK, st)
}

func (h *Handler) markStudent(c *gin.Context) {
	st, err := h.tracker.MarkNext(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.AttendanceMarked, EntityID: st.ID, ClassID: st.ClassID, Status: string(st.Status)})
	c.JSON(http.StatusOK, st)
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.tracker.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
