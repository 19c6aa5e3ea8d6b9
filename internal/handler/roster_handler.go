package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollbook/internal/queue"
)

type nameRequest struct {
	Name string `json:"name"`
}

type classRequest struct {
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
}

type studentRequest struct {
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
	ClassID      string `json:"classId"`
}

func (h *Handler) allData(c *gin.Context) {
	snap, err := h.query.AllData(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) classesOf(c *gin.Context) {
	classes, err := h.query.ClassesOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *Handler) studentsOf(c *gin.Context) {
	students, err := h.query.StudentsOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) addDepartment(c *gin.Context) {
	var req nameRequest
	if err := bind(c, &req); err != nil {
		badBody(c, err)
		return
	}
	d, err := h.roster.AddDepartment(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.DepartmentCreated, EntityID: d.ID})
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) addClass(c *gin.Context) {
	var req classRequest
	if err := bind(c, &req); err != nil {
		badBody(c, err)
		return
	}
	cl, err := h.roster.AddClass(c.Request.Context(), req.Name, req.DepartmentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.ClassCreated, EntityID: cl.ID})
	c.JSON(http.StatusCreated, cl)
}

func (h *Handler) addStudent(c *gin.Context) {
	var req studentRequest
	if err := bind(c, &req); err != nil {
		badBody(c, err)
		return
	}
	st, err := h.roster.AddStudent(c.Request.Context(), req.Name, req.DepartmentID, req.ClassID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.StudentAdmitted, EntityID: st.ID, ClassID: st.ClassID, Status: string(st.Status)})
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) editDepartment(c *gin.Context) {
	var req nameRequest
	if err := bind(c, &req); err != nil {
		badBody(c, err)
		return
	}
	d, err := h.roster.EditDepartment(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) editClass(c *gin.Context) {
	var req nameRequest
	if err := bind(c, &req); err != nil {
		badBody(c, err)
		return
	}
	cl, err := h.roster.EditClass(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (h *Handler) deleteDepartment(c *gin.Context) {
	id := c.Param("id")
	ack, err := h.roster.DeleteDepartment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.DepartmentDeleted, EntityID: id})
	c.JSON(http.StatusOK, gin.H{"message": ack})
}

func (h *Handler) deleteClass(c *gin.Context) {
	id := c.Param("id")
	ack, err := h.roster.DeleteClass(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.ClassDeleted, EntityID: id})
	c.JSON(http.StatusOK, gin.H{"message": ack})
}

func (h *Handler) deleteStudent(c *gin.Context) {
	id := c.Param("id")
	ack, err := h.roster.DeleteStudent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c, queue.Message{Type: queue.StudentDeleted, EntityID: id})
	c.JSON(http.StatusOK, gin.H{"message": ack})
}
