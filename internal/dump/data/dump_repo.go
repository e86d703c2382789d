package data

import (
	"context"
	"errors"
	"io"

	"github.com/lk2023060901/rrdump/internal/dump/biz"
	"github.com/lk2023060901/rrdump/internal/dump/types"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/recorddump"
)

// dumpRepo 实现 biz.DumpRepo, 把请求参数转换为记录服务的请求
type dumpRepo struct {
	client *recorddump.Client
}

// NewDumpRepo 创建导出仓储
func NewDumpRepo(client *recorddump.Client) biz.DumpRepo {
	return &dumpRepo{client: client}
}

func (r *dumpRepo) DryRun(ctx context.Context, params *types.RequestParameters) (string, error) {
	summary, err := r.client.DumpAgenciesDryRun(ctx, toAgencyParams(params))
	if err != nil {
		return "", mapClientError(err)
	}
	return summary, nil
}

func (r *dumpRepo) DumpAgencies(ctx context.Context, params *types.RequestParameters) (io.ReadCloser, error) {
	stream, err := r.client.DumpAgencies(ctx, toAgencyParams(params))
	if err != nil {
		return nil, mapClientError(err)
	}
	return stream, nil
}

func (r *dumpRepo) DumpRecords(ctx context.Context, params *types.RequestParameters) (io.ReadCloser, error) {
	stream, err := r.client.DumpRecords(ctx, toRecordParams(params), params.RecordList)
	if err != nil {
		return nil, mapClientError(err)
	}
	return stream, nil
}

func toAgencyParams(p *types.RequestParameters) *recorddump.AgencyParams {
	out := &recorddump.AgencyParams{
		Agencies:     append([]int(nil), p.Agencies...),
		CreatedFrom:  deref(p.CreatedFrom),
		CreatedTo:    deref(p.CreatedTo),
		ModifiedFrom: deref(p.ModifiedFrom),
		ModifiedTo:   deref(p.ModifiedTo),
	}
	if p.RecordStatus != nil {
		out.RecordStatus = string(*p.RecordStatus)
	}
	for _, rt := range p.RecordTypes {
		out.RecordType = append(out.RecordType, string(rt))
	}
	if p.OutputFormat != nil {
		out.OutputFormat = string(*p.OutputFormat)
	}
	if p.Mode != nil {
		out.Mode = string(*p.Mode)
	}
	out.OutputEncoding = deref(p.OutputEncoding)
	return out
}

func toRecordParams(p *types.RequestParameters) *recorddump.RecordParams {
	out := &recorddump.RecordParams{
		OutputEncoding: deref(p.OutputEncoding),
	}
	if p.OutputFormat != nil {
		out.OutputFormat = string(*p.OutputFormat)
	}
	if p.Mode != nil {
		out.Mode = string(*p.Mode)
	}
	return out
}

// mapClientError 把客户端错误映射到应用错误码
func mapClientError(err error) error {
	var (
		validationErr *recorddump.ValidationError
		statusErr     *recorddump.StatusError
		requestErr    *recorddump.RequestError
	)

	switch {
	case errors.As(err, &validationErr):
		items := make([]types.ValidationItem, 0, len(validationErr.Items))
		for _, item := range validationErr.Items {
			items = append(items, types.ValidationItem{FieldName: item.FieldName, Message: item.Message})
		}
		return apperrors.NewValidationError(&types.Rejection{Items: items})
	case errors.As(err, &statusErr):
		return apperrors.Wrapf(err, apperrors.ErrUnexpectedStatus, "status %d: %s", statusErr.StatusCode, statusErr.Body)
	case errors.As(err, &requestErr):
		return apperrors.NewTransportError(err, requestErr.Err.Error())
	default:
		return apperrors.Wrap(err, apperrors.ErrInternal)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
