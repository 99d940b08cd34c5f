package logic

import (
	"errors"
	"fmt"

	"github.com/blues/fss/internal/model"
	"gorm.io/gorm"
)

// ErrProjectNotFound 项目不存在
var ErrProjectNotFound = errors.New("project not found")

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject 创建项目，初始状态为待上链，由部署任务通过工厂合约部署
func (p *ProjectLogic) CreateProject(project *model.Project) error {
	if err := p.validateProject(project); err != nil {
		return err
	}

	// 设置默认值
	project.Status = model.ProjectStatusDeploying
	if project.Symbol == "" {
		project.Symbol = project.Name
	}

	if err := p.db.Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects() ([]model.Project, error) {
	var projects []model.Project
	if err := p.db.Preload("Members").Order("id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id uint) (*model.Project, error) {
	var project model.Project
	if err := p.db.Preload("Members").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// GetProjectByContract 根据合约地址获取项目
func (p *ProjectLogic) GetProjectByContract(address string) (*model.Project, error) {
	var project model.Project
	if err := p.db.Preload("Members").Where("contract_address = ?", address).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// GetDeployingProjects 获取待上链的项目
func (p *ProjectLogic) GetDeployingProjects() ([]model.Project, error) {
	var projects []model.Project
	err := p.db.Preload("Members").
		Where("status = ?", model.ProjectStatusDeploying).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deploying projects: %w", err)
	}
	return projects, nil
}

// MarkDeployed 记录部署结果
func (p *ProjectLogic) MarkDeployed(id uint, contractAddress, txHash string) error {
	updates := map[string]interface{}{
		"status":           model.ProjectStatusActive,
		"contract_address": contractAddress,
		"transaction_hash": txHash,
	}
	if err := p.db.Model(&model.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark project deployed: %w", err)
	}
	return nil
}

// MarkDeployFailed 记录部署失败
func (p *ProjectLogic) MarkDeployFailed(id uint) error {
	if err := p.db.Model(&model.Project{}).Where("id = ?", id).
		Update("status", model.ProjectStatusFailed).Error; err != nil {
		return fmt.Errorf("failed to mark project failed: %w", err)
	}
	return nil
}

// ActiveContractAddresses 获取所有已上链项目的合约地址
func (p *ProjectLogic) ActiveContractAddresses() ([]string, error) {
	var addresses []string
	err := p.db.Model(&model.Project{}).
		Where("status = ? AND contract_address <> ''", model.ProjectStatusActive).
		Pluck("contract_address", &addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contract addresses: %w", err)
	}
	return addresses, nil
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.Project) error {
	if project.Name == "" {
		return errors.New("项目名称不能为空")
	}
	if project.OwnerAddress == "" {
		return errors.New("项目创建者地址不能为空")
	}
	if len(project.Members) == 0 {
		return errors.New("项目成员不能为空")
	}
	return nil
}
