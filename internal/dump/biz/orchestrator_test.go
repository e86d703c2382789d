package biz

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/lk2023060901/rrdump/internal/dump/types"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo rejects every agency in unknown that is still part of the
// request. batch controls how many rejected agencies are reported per probe.
type fakeRepo struct {
	unknown   []int
	batch     int
	reverse   bool
	extra     []types.ValidationItem
	dryRunErr error
	dumpErr   error
	export    string

	probes      [][]int
	dumpCalls   int
	recordCalls int
	recordBody  string
}

func (f *fakeRepo) DryRun(_ context.Context, params *types.RequestParameters) (string, error) {
	f.probes = append(f.probes, append([]int(nil), params.Agencies...))
	if f.dryRunErr != nil {
		return "", f.dryRunErr
	}

	var items []types.ValidationItem
	for _, id := range f.unknown {
		if slices.Contains(params.Agencies, id) {
			items = append(items, unknownAgency(strconv.Itoa(id)))
		}
	}
	if f.reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	if f.batch > 0 && len(items) > f.batch {
		items = items[:f.batch]
	}
	items = append(items, f.extra...)
	if len(items) > 0 {
		return "", apperrors.NewValidationError(&types.Rejection{Items: items})
	}

	lines := make([]string, 0, len(params.Agencies))
	for _, id := range params.Agencies {
		lines = append(lines, strconv.Itoa(id)+": 10")
	}
	return strings.Join(lines, "\n"), nil
}

func (f *fakeRepo) DumpAgencies(_ context.Context, _ *types.RequestParameters) (io.ReadCloser, error) {
	f.dumpCalls++
	if f.dumpErr != nil {
		return nil, f.dumpErr
	}
	return io.NopCloser(strings.NewReader(f.export)), nil
}

func (f *fakeRepo) DumpRecords(_ context.Context, params *types.RequestParameters) (io.ReadCloser, error) {
	f.recordCalls++
	f.recordBody = params.RecordList
	if f.dumpErr != nil {
		return nil, f.dumpErr
	}
	return io.NopCloser(strings.NewReader(f.export)), nil
}

// fakeWriter keeps committed files in memory and only replaces an entry
// after the whole stream was read.
type fakeWriter struct {
	files map[string]string
	err   error
	calls int
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{files: map[string]string{}}
}

func (w *fakeWriter) Write(r io.Reader, dest string) (int64, error) {
	w.calls++
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, apperrors.NewIOError(err)
	}
	if w.err != nil {
		return 0, w.err
	}
	w.files[dest] = string(data)
	return int64(len(data)), nil
}

type fakeArchiver struct {
	err   error
	paths []string
}

func (a *fakeArchiver) Archive(_ context.Context, path string) (string, error) {
	a.paths = append(a.paths, path)
	if a.err != nil {
		return "", a.err
	}
	return "dumps/" + path, nil
}

func agencyParams(dryRun bool, agencies ...int) *types.RequestParameters {
	return &types.RequestParameters{
		Target:   types.TargetAgencyBatch,
		Agencies: agencies,
		DryRun:   dryRun,
	}
}

func TestRunCommits(t *testing.T) {
	repo := &fakeRepo{export: "record data"}
	writer := newFakeWriter()
	writer.files["out.lin"] = "previous"
	var out bytes.Buffer

	o := NewOrchestrator(repo, writer, nil, &out, nil)
	result, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
	require.NoError(t, err)

	assert.Equal(t, types.StateCommitted, result.State)
	assert.Equal(t, 1, result.Probes)
	assert.Equal(t, int64(len("record data")), result.Written)
	assert.Equal(t, "record data", writer.files["out.lin"])
	assert.Equal(t, "Getting record count...\n870970: 10\nExporting records...\nDone\n", out.String())
}

func TestRunPrunesUnknownAgencies(t *testing.T) {
	tests := []struct {
		name       string
		batch      int
		reverse    bool
		wantProbes int
	}{
		{name: "one per round, first first", batch: 1, wantProbes: 3},
		{name: "one per round, last first", batch: 1, reverse: true, wantProbes: 3},
		{name: "all in one round", batch: 0, wantProbes: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{unknown: []int{700001, 700003}, batch: tt.batch, reverse: tt.reverse, export: "x"}
			writer := newFakeWriter()
			params := agencyParams(false, 700001, 700002, 700003, 700004)

			o := NewOrchestrator(repo, writer, nil, io.Discard, nil)
			result, err := o.Run(context.Background(), params, "out.lin")
			require.NoError(t, err)

			assert.Equal(t, tt.wantProbes, result.Probes)
			assert.LessOrEqual(t, len(repo.probes), 3)
			assert.Equal(t, []int{700002, 700004}, repo.probes[len(repo.probes)-1])
			assert.Equal(t, []int{700002, 700004}, params.Agencies)
			assert.ElementsMatch(t, []int{700001, 700003}, result.Pruned)
			assert.Equal(t, 1, repo.dumpCalls)
		})
	}
}

func TestRunRecordTypeRequiredAbortsWithHint(t *testing.T) {
	repo := &fakeRepo{
		unknown: []int{700001},
		extra: []types.ValidationItem{
			{FieldName: "recordType", Message: "The field is required when dumping FBS agencies"},
		},
	}
	writer := newFakeWriter()
	writer.files["out.lin"] = "X"
	var out bytes.Buffer

	o := NewOrchestrator(repo, writer, nil, &out, nil)
	result, err := o.Run(context.Background(), agencyParams(false, 700001, 700002), "out.lin")
	require.Error(t, err)

	assert.Equal(t, types.StateAborted, result.State)
	assert.Len(t, repo.probes, 1)
	assert.Equal(t, apperrors.ExitValidation, apperrors.ExitCodeOf(err))
	assert.Equal(t, 0, repo.dumpCalls)
	assert.Equal(t, "X", writer.files["out.lin"])

	printed := out.String()
	assert.Contains(t, printed, "Validation error!")
	assert.Contains(t, printed, "Field agencies: Agency 700001 could not be validated by OpenAgency")
	assert.Contains(t, printed, "Field recordType: The field is required when dumping FBS agencies")
	assert.Contains(t, printed, "-t TYPE [TYPE ...], --type TYPE [TYPE ...]")
}

func TestRunNonRecoverableWithoutHint(t *testing.T) {
	repo := &fakeRepo{extra: []types.ValidationItem{{FieldName: "createdFrom", Message: "invalid date"}}}
	var out bytes.Buffer

	o := NewOrchestrator(repo, newFakeWriter(), nil, &out, nil)
	_, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
	require.Error(t, err)

	var rejection *types.Rejection
	require.True(t, errors.As(err, &rejection))
	assert.NotContains(t, out.String(), "--type")
	assert.Contains(t, out.String(), "Field createdFrom: invalid date")
}

func TestRunAllAgenciesRejected(t *testing.T) {
	repo := &fakeRepo{unknown: []int{700001, 700002}}
	writer := newFakeWriter()

	o := NewOrchestrator(repo, writer, nil, io.Discard, nil)
	result, err := o.Run(context.Background(), agencyParams(false, 700001, 700002), "out.lin")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNoAgenciesLeft)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, types.StateAborted, result.State)
	assert.Len(t, repo.probes, 1)
	assert.Equal(t, 0, writer.calls)
}

func TestRunRejectionWithoutProgress(t *testing.T) {
	repo := &fakeRepo{
		extra: []types.ValidationItem{unknownAgency("999999")},
	}

	o := NewOrchestrator(repo, newFakeWriter(), nil, io.Discard, nil)
	_, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNoProgress)
	assert.Equal(t, apperrors.ExitValidation, apperrors.ExitCodeOf(err))
	assert.Len(t, repo.probes, 1)
}

func TestRunDryRunNeverCommits(t *testing.T) {
	tests := []struct {
		name    string
		unknown []int
	}{
		{name: "accepted"},
		{name: "recovered", unknown: []int{700001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{unknown: tt.unknown, export: "x"}
			writer := newFakeWriter()
			archiver := &fakeArchiver{}
			var out bytes.Buffer

			o := NewOrchestrator(repo, writer, archiver, &out, nil)
			result, err := o.Run(context.Background(), agencyParams(true, 700001, 700002), "out.lin")
			require.NoError(t, err)

			assert.Equal(t, types.StateCommitted, result.State)
			assert.Equal(t, 0, repo.dumpCalls)
			assert.Equal(t, 0, writer.calls)
			assert.Empty(t, archiver.paths)
			assert.NotContains(t, out.String(), "Exporting records...")
			assert.Contains(t, out.String(), "700002: 10")
		})
	}
}

func TestRunAbortKeepsDestination(t *testing.T) {
	transport := apperrors.NewTransportError(errors.New("connection refused"))

	tests := []struct {
		name     string
		repo     *fakeRepo
		writeErr error
		wantExit int
	}{
		{name: "probe transport error", repo: &fakeRepo{dryRunErr: transport}, wantExit: apperrors.ExitTransport},
		{name: "probe unexpected status", repo: &fakeRepo{dryRunErr: apperrors.NewUnexpectedStatusError(500, "boom")}, wantExit: apperrors.ExitUnexpectedStatus},
		{name: "export transport error", repo: &fakeRepo{dumpErr: transport}, wantExit: apperrors.ExitTransport},
		{name: "write error", repo: &fakeRepo{export: "partial"}, writeErr: apperrors.NewIOError(errors.New("disk full")), wantExit: apperrors.ExitIO},
		{name: "validation error", repo: &fakeRepo{extra: []types.ValidationItem{{FieldName: "x", Message: "y"}}}, wantExit: apperrors.ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := newFakeWriter()
			writer.files["out.lin"] = "X"
			writer.err = tt.writeErr
			var out bytes.Buffer

			o := NewOrchestrator(tt.repo, writer, nil, &out, nil)
			result, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
			require.Error(t, err)

			assert.Equal(t, types.StateAborted, result.State)
			assert.Equal(t, tt.wantExit, apperrors.ExitCodeOf(err))
			assert.Equal(t, "X", writer.files["out.lin"])
			assert.NotContains(t, out.String(), "Done")
		})
	}
}

func TestRunUnexpectedErrorOutput(t *testing.T) {
	repo := &fakeRepo{dryRunErr: apperrors.NewUnexpectedStatusError(502, "bad gateway")}
	var out bytes.Buffer

	o := NewOrchestrator(repo, newFakeWriter(), nil, &out, nil)
	_, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
	require.Error(t, err)

	assert.Equal(t, "Getting record count...\nUnexpected error!\nstatus 502: bad gateway\n", out.String())
}

func TestRunRecordList(t *testing.T) {
	repo := &fakeRepo{export: `[{"id":1}]`}
	writer := newFakeWriter()
	var out bytes.Buffer

	params := &types.RequestParameters{
		Target:     types.TargetRecordList,
		RecordList: "51715098:870970\n68622840:870979",
	}

	o := NewOrchestrator(repo, writer, nil, &out, nil)
	result, err := o.Run(context.Background(), params, "out.json")
	require.NoError(t, err)

	assert.Empty(t, repo.probes)
	assert.Equal(t, 1, repo.recordCalls)
	assert.Equal(t, "51715098:870970\n68622840:870979", repo.recordBody)
	assert.Equal(t, `[{"id":1}]`, writer.files["out.json"])
	assert.Equal(t, types.StateCommitted, result.State)
	assert.Equal(t, "Exporting records...\nDone\n", out.String())
}

func TestRunRecordListDryRun(t *testing.T) {
	repo := &fakeRepo{}
	writer := newFakeWriter()
	var out bytes.Buffer

	params := &types.RequestParameters{
		Target:     types.TargetRecordList,
		RecordList: "51715098:870970\n68622840:870979",
		DryRun:     true,
	}

	o := NewOrchestrator(repo, writer, nil, &out, nil)
	result, err := o.Run(context.Background(), params, "out.json")
	require.NoError(t, err)

	assert.Equal(t, 0, repo.recordCalls)
	assert.Equal(t, 0, writer.calls)
	assert.Equal(t, "Record list contains 2 records", result.Summary)
}

func TestRunRecordListRejected(t *testing.T) {
	repo := &fakeRepo{dumpErr: apperrors.NewValidationError(&types.Rejection{
		Items: []types.ValidationItem{{FieldName: "outputFormat", Message: "not supported"}},
	})}
	var out bytes.Buffer

	params := &types.RequestParameters{Target: types.TargetRecordList, RecordList: "1:2"}

	o := NewOrchestrator(repo, newFakeWriter(), nil, &out, nil)
	_, err := o.Run(context.Background(), params, "out.json")
	require.Error(t, err)

	assert.Equal(t, apperrors.ExitValidation, apperrors.ExitCodeOf(err))
	assert.Contains(t, out.String(), "Field outputFormat: not supported")
}

func TestRunArchivesAfterCommit(t *testing.T) {
	archiver := &fakeArchiver{}
	var out bytes.Buffer

	o := NewOrchestrator(&fakeRepo{export: "x"}, newFakeWriter(), archiver, &out, nil)
	result, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
	require.NoError(t, err)

	assert.Equal(t, []string{"out.lin"}, archiver.paths)
	assert.Equal(t, "dumps/out.lin", result.Archived)
	assert.Contains(t, out.String(), "Archived as dumps/out.lin")
}

func TestRunArchiveFailureIsWarning(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("bucket missing")}
	var out bytes.Buffer

	o := NewOrchestrator(&fakeRepo{export: "x"}, newFakeWriter(), archiver, &out, nil)
	result, err := o.Run(context.Background(), agencyParams(false, 870970), "out.lin")
	require.NoError(t, err)

	assert.Equal(t, types.StateCommitted, result.State)
	assert.Empty(t, result.Archived)
	assert.Contains(t, out.String(), "Warning: archive upload failed")
}

func TestRunInvalidTarget(t *testing.T) {
	o := NewOrchestrator(&fakeRepo{}, newFakeWriter(), nil, io.Discard, nil)

	result, err := o.Run(context.Background(), &types.RequestParameters{Target: types.TargetAgencyBatch}, "out.lin")
	require.Error(t, err)
	assert.Equal(t, types.StateAborted, result.State)
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCodeOf(err))

	_, err = o.Run(context.Background(), nil, "out.lin")
	assert.Error(t, err)
}
