package model

import (
	"time"

	"gorm.io/gorm"
)

// Project FairSharing项目模型
type Project struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 基本信息
	Name   string `json:"name" gorm:"not null" binding:"required"`
	Symbol string `json:"symbol"`

	// 创建者信息
	OwnerAddress string `json:"owner_address" gorm:"not null"`

	// 区块链信息
	ContractAddress string `json:"contract_address" gorm:"index"`
	TransactionHash string `json:"transaction_hash"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"default:'deploying'"`

	// 关联
	Members []ProjectMember      `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
	Records []ContributionRecord `json:"records,omitempty" gorm:"foreignKey:Contract;references:ContractAddress"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusDeploying ProjectStatus = "deploying" // 待上链
	ProjectStatusActive    ProjectStatus = "active"    // 进行中
	ProjectStatusFailed    ProjectStatus = "failed"    // 部署失败
)

// ProjectMember 项目成员
type ProjectMember struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ProjectID uint   `json:"project_id" gorm:"not null;index"`
	Address   string `json:"address" gorm:"not null"` // 成员钱包地址
}
