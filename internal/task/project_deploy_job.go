package task

import (
	"context"
	"time"

	"github.com/blues/fss/internal/config"
	"github.com/blues/fss/internal/contract"
	"github.com/blues/fss/internal/ethereum"
	"github.com/blues/fss/internal/logger"
	"github.com/blues/fss/internal/logic"
	"github.com/blues/fss/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ProjectDeployJob 项目部署任务：通过工厂合约为待上链项目部署FairSharing实例
type ProjectDeployJob struct {
	db           *gorm.DB
	config       *config.Config
	ethClient    *ethereum.Client
	projectLogic *logic.ProjectLogic
}

// NewProjectDeployJob 创建项目部署任务
func NewProjectDeployJob(db *gorm.DB, cfg *config.Config, ethClient *ethereum.Client) *ProjectDeployJob {
	return &ProjectDeployJob{
		db:           db,
		config:       cfg,
		ethClient:    ethClient,
		projectLogic: logic.NewProjectLogic(db),
	}
}

// GetName 获取任务名称
func (j *ProjectDeployJob) GetName() string {
	return "project_deploy_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectDeployJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectDeployJob) Execute() {
	logger.Info("Starting project deploy task")

	projects, err := j.projectLogic.GetDeployingProjects()
	if err != nil {
		logger.Error("Failed to fetch projects for deployment: %v", err)
		return
	}

	factory, err := contract.NewFactory(j.ethClient.Raw(), common.HexToAddress(j.config.Chain.FactoryAddr))
	if err != nil {
		logger.Error("Failed to create factory contract: %v", err)
		return
	}

	deployedCount := 0

	for _, project := range projects {
		// 避免重复部署
		if project.ContractAddress != "" {
			logger.Info("Project %d already has contract address: %s", project.ID, project.ContractAddress)
			continue
		}

		if err := j.deployProject(factory, &project); err != nil {
			logger.Error("Failed to deploy project %d: %v", project.ID, err)
			continue
		}
		deployedCount++
	}

	if deployedCount > 0 {
		if count, err := factory.Count(&bind.CallOpts{}); err == nil {
			logger.Info("Factory now tracks %s instances", count.String())
		}
	}

	logger.Info("Project deploy task completed. Deployed %d projects", deployedCount)
}

// deployProject 部署单个项目并等待交易确认
func (j *ProjectDeployJob) deployProject(factory *contract.Factory, project *model.Project) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	auth, err := j.ethClient.GetAuth(ctx)
	if err != nil {
		return err
	}

	members := make([]common.Address, 0, len(project.Members))
	for _, m := range project.Members {
		members = append(members, common.HexToAddress(m.Address))
	}

	tx, err := factory.CreateFairSharing(auth, project.Name, project.Symbol, members, common.HexToAddress(project.OwnerAddress))
	if err != nil {
		return err
	}

	receipt, err := j.ethClient.WaitMined(ctx, tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		if markErr := j.projectLogic.MarkDeployFailed(project.ID); markErr != nil {
			logger.Error("Failed to mark project %d failed: %v", project.ID, markErr)
		}
		logger.Error("Deploy transaction reverted for project %d: %s", project.ID, tx.Hash().Hex())
		return nil
	}

	// 达到确认区块数后再记录实例地址，避免重组导致误记
	if err := j.waitConfirmed(ctx, tx.Hash()); err != nil {
		return err
	}

	instance, err := factory.InstanceFromReceipt(receipt)
	if err != nil {
		return err
	}

	j.verifyInstance(ctx, instance, project)

	if err := j.projectLogic.MarkDeployed(project.ID, instance.Hex(), tx.Hash().Hex()); err != nil {
		return err
	}

	logger.Info("Successfully deployed project %d at %s. TxHash: %s",
		project.ID, instance.Hex(), tx.Hash().Hex())
	return nil
}

// waitConfirmed 轮询等待交易达到配置的确认区块数
func (j *ProjectDeployJob) waitConfirmed(ctx context.Context, txHash common.Hash) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		confirmed, err := j.ethClient.IsTransactionConfirmed(ctx, txHash)
		if err != nil {
			return err
		}
		if confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// verifyInstance 读回新实例的链上状态与项目数据核对
func (j *ProjectDeployJob) verifyInstance(ctx context.Context, addr common.Address, project *model.Project) {
	fs, err := contract.NewFairSharing(j.ethClient.Raw(), addr)
	if err != nil {
		logger.Warn("Failed to bind instance %s: %v", addr.Hex(), err)
		return
	}

	opts := &bind.CallOpts{Context: ctx}
	name, err := fs.Name(opts)
	if err != nil {
		logger.Warn("Failed to read name of instance %s: %v", addr.Hex(), err)
		return
	}
	total, err := fs.TotalMembers(opts)
	if err != nil {
		logger.Warn("Failed to read member count of instance %s: %v", addr.Hex(), err)
		return
	}

	if name != project.Name || total.Int64() != int64(len(project.Members)) {
		logger.Warn("Instance %s state mismatch: name=%s members=%s", addr.Hex(), name, total.String())
		return
	}

	logger.Info("Instance %s verified: name=%s members=%d", addr.Hex(), name, total.Int64())
}
