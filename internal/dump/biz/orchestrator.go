package biz

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lk2023060901/rrdump/internal/dump/types"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"go.uber.org/zap"
)

// DumpRepo 导出服务仓储接口, 请求参数被拒绝时返回包装了 *types.Rejection 的错误
type DumpRepo interface {
	DryRun(ctx context.Context, params *types.RequestParameters) (string, error)
	DumpAgencies(ctx context.Context, params *types.RequestParameters) (io.ReadCloser, error)
	DumpRecords(ctx context.Context, params *types.RequestParameters) (io.ReadCloser, error)
}

// StreamWriter 用 r 的内容替换 dest, 失败时 dest 保持不变
type StreamWriter interface {
	Write(r io.Reader, dest string) (int64, error)
}

// Archiver 保存已提交导出文件的副本 (可选)
type Archiver interface {
	Archive(ctx context.Context, path string) (string, error)
}

// Result 一次导出的结果
type Result struct {
	State    types.State
	Summary  string
	Probes   int
	Pruned   []int
	Written  int64
	Archived string
}

// Orchestrator 导出流程编排: 记录数探测, 剔除未知机构后重试, 最后导出
type Orchestrator struct {
	repo     DumpRepo
	writer   StreamWriter
	archiver Archiver
	out      io.Writer
	logger   *logger.Logger
}

// NewOrchestrator 创建编排器, 面向操作员的输出写入 out, archiver 可为 nil
func NewOrchestrator(repo DumpRepo, writer StreamWriter, archiver Archiver, out io.Writer, log *logger.Logger) *Orchestrator {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		repo:     repo,
		writer:   writer,
		archiver: archiver,
		out:      out,
		logger:   log.Named("orchestrator"),
	}
}

// run 单次 Run 调用的状态
type run struct {
	log    *logger.Logger
	result *Result
}

func (r *run) transition(to types.State) {
	r.log.Debug("dump state changed",
		zap.String("from", string(r.result.State)),
		zap.String("to", string(to)),
	)
	r.result.State = to
}

// Run 按 params 执行导出并写入 dest.
// 重试过程中会原地剔除 params.Agencies 中的机构.
// 返回的 Result 不为 nil, err 非 nil 时 State 为 StateAborted.
func (o *Orchestrator) Run(ctx context.Context, params *types.RequestParameters, dest string) (*Result, error) {
	r := &run{
		log:    o.logger.WithContext(ctx),
		result: &Result{State: types.StateInit},
	}

	if params == nil {
		r.transition(types.StateAborted)
		return r.result, apperrors.Wrap(ErrNoTarget, apperrors.ErrConfiguration)
	}
	if err := params.CheckTarget(); err != nil {
		r.transition(types.StateAborted)
		return r.result, apperrors.Wrap(err, apperrors.ErrConfiguration)
	}

	r.log.Info("dump started",
		zap.String("target", params.Target.String()),
		zap.Ints("agencies", params.Agencies),
		zap.Bool("dry_run", params.DryRun),
		zap.String("file", dest),
	)

	var err error
	if params.Target == types.TargetAgencyBatch {
		err = o.runAgencies(ctx, r, params, dest)
	} else {
		err = o.runRecords(ctx, r, params, dest)
	}
	if err != nil {
		r.transition(types.StateAborted)
		r.log.Error("dump aborted", zap.Error(err))
		return r.result, err
	}

	r.transition(types.StateCommitted)
	fmt.Fprintln(o.out, "Done")

	if !params.DryRun && o.archiver != nil {
		o.archive(ctx, r, dest)
	}

	r.log.Info("dump finished",
		zap.Int("probes", r.result.Probes),
		zap.Ints("pruned", r.result.Pruned),
		zap.Int64("bytes", r.result.Written),
	)
	return r.result, nil
}

func (o *Orchestrator) runAgencies(ctx context.Context, r *run, params *types.RequestParameters, dest string) error {
	fmt.Fprintln(o.out, "Getting record count...")

	summary, err := o.probe(ctx, r, params)
	if err != nil {
		return err
	}
	r.result.Summary = summary
	fmt.Fprintln(o.out, summary)

	if params.DryRun {
		return nil
	}

	fmt.Fprintln(o.out, "Exporting records...")
	r.transition(types.StateCommitting)

	stream, err := o.repo.DumpAgencies(ctx, params)
	if err != nil {
		return o.reportFailure(err)
	}
	return o.commit(r, stream, dest)
}

// probe 反复探测记录数直到成功, 每轮剔除被拒绝的未知机构, 且每轮至少剔除一个
func (o *Orchestrator) probe(ctx context.Context, r *run, params *types.RequestParameters) (string, error) {
	for {
		r.transition(types.StateCountProbe)
		r.result.Probes++

		summary, err := o.repo.DryRun(ctx, params)
		if err == nil {
			return summary, nil
		}

		var rejection *types.Rejection
		if !errors.As(err, &rejection) {
			return "", o.reportFailure(err)
		}

		rejected, recoverable := ClassifyRejection(rejection.Items)
		if !recoverable {
			o.reportRejection(rejection.Items)
			return "", apperrors.Wrap(err, apperrors.ErrValidation)
		}

		r.transition(types.StateRecovering)
		removed := 0
		for _, id := range rejected {
			if !params.RemoveAgency(id) {
				continue
			}
			removed++
			r.result.Pruned = append(r.result.Pruned, id)
			r.log.Warn("agency could not be validated by OpenAgency, removed from dump",
				zap.Int("agency", id),
				zap.Int("remaining", len(params.Agencies)),
			)
		}

		if removed == 0 {
			o.reportRejection(rejection.Items)
			return "", apperrors.Wrapf(ErrNoProgress, apperrors.ErrValidation, "agencies %v", rejected)
		}
		if len(params.Agencies) == 0 {
			o.reportRejection(rejection.Items)
			return "", apperrors.Wrapf(ErrNoAgenciesLeft, apperrors.ErrValidation, "pruned %v", r.result.Pruned)
		}
	}
}

func (o *Orchestrator) runRecords(ctx context.Context, r *run, params *types.RequestParameters, dest string) error {
	if params.DryRun {
		summary := fmt.Sprintf("Record list contains %d records", countLines(params.RecordList))
		r.result.Summary = summary
		fmt.Fprintln(o.out, summary)
		return nil
	}

	fmt.Fprintln(o.out, "Exporting records...")
	r.transition(types.StateCommitting)

	stream, err := o.repo.DumpRecords(ctx, params)
	if err != nil {
		var rejection *types.Rejection
		if errors.As(err, &rejection) {
			o.reportRejection(rejection.Items)
			return apperrors.Wrap(err, apperrors.ErrValidation)
		}
		return o.reportFailure(err)
	}
	return o.commit(r, stream, dest)
}

func (o *Orchestrator) commit(r *run, stream io.ReadCloser, dest string) error {
	defer stream.Close()

	n, err := o.writer.Write(stream, dest)
	if err != nil {
		return o.reportFailure(err)
	}
	r.result.Written = n
	return nil
}

func (o *Orchestrator) archive(ctx context.Context, r *run, dest string) {
	key, err := o.archiver.Archive(ctx, dest)
	if err != nil {
		r.log.Warn("archive upload failed", zap.String("file", dest), zap.Error(err))
		fmt.Fprintf(o.out, "Warning: archive upload failed: %v\n", err)
		return
	}
	r.result.Archived = key
	fmt.Fprintf(o.out, "Archived as %s\n", key)
}

func (o *Orchestrator) reportRejection(items []types.ValidationItem) {
	fmt.Fprintln(o.out, "Validation error!")
	for _, item := range items {
		fmt.Fprintf(o.out, "Field %s: %s\n", item.FieldName, item.Message)
		if RecordTypeRequired(item) {
			fmt.Fprintln(o.out, RecordTypeHint)
		}
	}
}

func (o *Orchestrator) reportFailure(err error) error {
	fmt.Fprintln(o.out, "Unexpected error!")
	fmt.Fprintln(o.out, apperrors.GetDetails(err))
	return apperrors.Wrap(err, apperrors.ErrInternal)
}

func countLines(body string) int {
	if body == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(body); i++ {
		if body[i] == '\n' {
			n++
		}
	}
	return n
}
