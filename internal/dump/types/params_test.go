package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		target  TargetMode
		want    OutputFormat
		wantErr bool
	}{
		{name: "line for agencies", value: "LINE", target: TargetAgencyBatch, want: OutputFormatLine},
		{name: "line xml for agencies", value: "LINE_XML", target: TargetAgencyBatch, want: OutputFormatLineXML},
		{name: "json for records", value: "JSON", target: TargetRecordList, want: OutputFormatJSON},
		{name: "json refused for agencies", value: "JSON", target: TargetAgencyBatch, wantErr: true},
		{name: "lower case refused", value: "xml", target: TargetRecordList, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.value, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnums(t *testing.T) {
	status, err := ParseRecordStatus("DELETED")
	require.NoError(t, err)
	assert.Equal(t, RecordStatusDeleted, status)

	_, err = ParseRecordStatus("GONE")
	assert.Error(t, err)

	rt, err := ParseRecordType("HOLDINGS")
	require.NoError(t, err)
	assert.Equal(t, RecordTypeHoldings, rt)

	_, err = ParseRecordType("REMOTE")
	assert.Error(t, err)

	mode, err := ParseMode("EXPANDED")
	require.NoError(t, err)
	assert.Equal(t, ModeExpanded, mode)

	_, err = ParseMode("merged")
	assert.Error(t, err)
}

func TestCheckAgencies(t *testing.T) {
	assert.NoError(t, CheckAgencies([]int{870970, 870971}))
	assert.NoError(t, CheckAgencies([]int{AggregateAgency}))
	assert.Error(t, CheckAgencies(nil))
	assert.Error(t, CheckAgencies([]int{870970, 0}))
	assert.Error(t, CheckAgencies([]int{870970, 870970}))
	assert.Error(t, CheckAgencies([]int{870970, AggregateAgency}))
}

func TestRemoveAgency(t *testing.T) {
	p := &RequestParameters{Target: TargetAgencyBatch, Agencies: []int{1, 2, 3}}

	assert.True(t, p.RemoveAgency(2))
	assert.Equal(t, []int{1, 3}, p.Agencies)
	assert.False(t, p.RemoveAgency(2))
}

func TestCheckTarget(t *testing.T) {
	assert.NoError(t, (&RequestParameters{Target: TargetAgencyBatch, Agencies: []int{1}}).CheckTarget())
	assert.NoError(t, (&RequestParameters{Target: TargetRecordList, RecordList: "1:2"}).CheckTarget())
	assert.Error(t, (&RequestParameters{Target: TargetAgencyBatch, Agencies: []int{1}, RecordList: "1:2"}).CheckTarget())
	assert.Error(t, (&RequestParameters{Target: TargetAgencyBatch}).CheckTarget())
	assert.Error(t, (&RequestParameters{Target: TargetRecordList, Agencies: []int{1}}).CheckTarget())
}

func TestWithoutAggregate(t *testing.T) {
	assert.Equal(t, []int{870970, 870971}, WithoutAggregate([]int{870971, AggregateAgency, 870970}))
}
