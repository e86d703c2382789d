package service

import (
	"context"
	"fmt"
	"io"

	"github.com/lk2023060901/rrdump/internal/dump/biz"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"go.uber.org/zap"
)

// AgencyLister 返回记录服务已知的全部机构
type AgencyLister interface {
	ListAgencies(ctx context.Context) ([]int, error)
}

// DumpRequest 一次导出调用的输入
type DumpRequest struct {
	Options     biz.DumpOptions
	AllAgencies bool   // 忽略 Options.Agencies, 从服务端获取机构列表
	File        string // 目标文件
}

// DumpService 串联参数构建、机构解析与导出流程
type DumpService struct {
	builder      *biz.ParamsBuilder
	agencies     AgencyLister
	orchestrator *biz.Orchestrator
	out          io.Writer
	logger       *logger.Logger
}

// NewDumpService 创建导出服务
func NewDumpService(
	builder *biz.ParamsBuilder,
	agencies AgencyLister,
	orchestrator *biz.Orchestrator,
	out io.Writer,
	log *logger.Logger,
) *DumpService {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DumpService{
		builder:      builder,
		agencies:     agencies,
		orchestrator: orchestrator,
		out:          out,
		logger:       log.Named("service"),
	}
}

// Dump 执行一次导出. 配置错误不输出任何内容, 交给调用方按用法错误处理;
// 其余错误已经输出给操作员.
func (s *DumpService) Dump(ctx context.Context, req *DumpRequest) (*biz.Result, error) {
	if req == nil {
		return nil, apperrors.Wrap(biz.ErrNoTarget, apperrors.ErrConfiguration)
	}
	log := s.logger.WithContext(ctx)

	opts := req.Options
	if req.AllAgencies {
		if len(opts.Agencies) > 0 || opts.RecordsFile != "" {
			return nil, apperrors.Wrap(biz.ErrBothTargets, apperrors.ErrConfiguration)
		}
		if s.agencies == nil {
			return nil, apperrors.NewAgencyResolverError(fmt.Errorf("no agency resolver configured"))
		}

		agencies, err := s.agencies.ListAgencies(ctx)
		if err != nil {
			fmt.Fprintln(s.out, "Unexpected error!")
			fmt.Fprintln(s.out, apperrors.GetDetails(err))
			log.Error("agency list failed", zap.Error(err))
			return nil, err
		}
		opts.Agencies = agencies
	}

	params, err := s.builder.Build(&opts)
	if err != nil {
		log.Debug("invalid dump options", zap.Error(err))
		return nil, err
	}

	return s.orchestrator.Run(ctx, params, req.File)
}
