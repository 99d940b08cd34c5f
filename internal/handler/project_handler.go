package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blues/fss/internal/logic"
	"github.com/blues/fss/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: logic.NewProjectLogic(db),
	}
}

// CreateProject 创建项目，之后由部署任务上链
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Owner) {
		ErrorResponse(c, http.StatusBadRequest, "invalid owner address")
		return
	}

	members := make([]model.ProjectMember, 0, len(req.Members))
	for _, m := range req.Members {
		if !common.IsHexAddress(m) {
			ErrorResponse(c, http.StatusBadRequest, "invalid member address: "+m)
			return
		}
		members = append(members, model.ProjectMember{Address: common.HexToAddress(m).Hex()})
	}

	project := &model.Project{
		Name:         req.Name,
		Symbol:       req.Symbol,
		OwnerAddress: common.HexToAddress(req.Owner).Hex(),
		Members:      members,
	}

	if err := h.projectLogic.CreateProject(project); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "project created", project)
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectLogic.GetProjects()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", projects)
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	project, err := h.projectLogic.GetProject(uint(id))
	if err != nil {
		if errors.Is(err, logic.ErrProjectNotFound) {
			ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", project)
}
