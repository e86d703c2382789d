package cli

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/rrdump/internal/dump/types"
	"github.com/spf13/pflag"
)

type kind int

const (
	kindString kind = iota
	kindStrings
	kindInts
	kindBool
)

// scope is the set of target modes an option has an effect in
type scope uint8

const (
	scopeAgencies scope = 1 << iota
	scopeRecords
	scopeRun

	scopeAll = scopeAgencies | scopeRecords | scopeRun
)

// option describes one command line option
type option struct {
	name      string
	shorthand string
	legacy    string // single dash multi letter alias, normalized before parsing
	kind      kind
	def       string
	usage     string
	scope     scope
	datetime  bool // value may be followed by a separate HH:mm:ss argument
}

// Option names used outside the table
const (
	optAgencies     = "agencies"
	optAllAgencies  = "all-agencies"
	optRecords      = "records"
	optMode         = "mode"
	optFormat       = "format"
	optEncoding     = "encoding"
	optStatus       = "status"
	optType         = "type"
	optCreatedFrom  = "created-from"
	optCreatedTo    = "created-to"
	optModifiedFrom = "modified-from"
	optModifiedTo   = "modified-to"
	optURL          = "url"
	optFile         = "file"
	optDryRun       = "dryrun"
	optConfig       = "config"
	optLogLevel     = "log-level"
	optLogFormat    = "log-format"
)

var options = []option{
	{name: optAgencies, shorthand: "a", kind: kindInts, scope: scopeAgencies,
		usage: "List of agencies to dump"},
	{name: optAllAgencies, kind: kindBool, scope: scopeAgencies,
		usage: "Dump every agency known by the record service"},
	{name: optRecords, shorthand: "r", kind: kindString, scope: scopeRecords,
		usage: "File containing bibliographicrecordid:agencyid lines"},
	{name: optMode, shorthand: "m", kind: kindString, def: string(types.ModeMerged), scope: scopeAgencies | scopeRecords,
		usage: "Mode of the records (" + strings.Join(types.ModeNames(), ", ") + ")"},
	{name: optFormat, shorthand: "f", kind: kindString, def: string(types.OutputFormatLine), scope: scopeAgencies | scopeRecords,
		usage: "Output format (" + strings.Join(types.OutputFormatNames(), ", ") + "). JSON only with --records"},
	{name: optEncoding, shorthand: "e", kind: kindString, def: "UTF-8", scope: scopeAgencies | scopeRecords,
		usage: "Output encoding"},
	{name: optStatus, shorthand: "s", kind: kindString, def: string(types.RecordStatusActive), scope: scopeAgencies,
		usage: "Record status (" + strings.Join(types.RecordStatusNames(), ", ") + ")"},
	{name: optType, shorthand: "t", kind: kindStrings, scope: scopeAgencies,
		usage: "Record types (" + strings.Join(types.RecordTypeNames(), ", ") + ")"},
	{name: optCreatedFrom, legacy: "cf", kind: kindString, scope: scopeAgencies, datetime: true,
		usage: "Records created on or after this date, YYYY-MM-DD or YYYY-MM-DD HH:mm:ss"},
	{name: optCreatedTo, legacy: "ct", kind: kindString, scope: scopeAgencies, datetime: true,
		usage: "Records created before this date, YYYY-MM-DD or YYYY-MM-DD HH:mm:ss"},
	{name: optModifiedFrom, legacy: "mf", kind: kindString, scope: scopeAgencies, datetime: true,
		usage: "Records modified on or after this date, YYYY-MM-DD or YYYY-MM-DD HH:mm:ss"},
	{name: optModifiedTo, legacy: "mt", kind: kindString, scope: scopeAgencies, datetime: true,
		usage: "Records modified before this date, YYYY-MM-DD or YYYY-MM-DD HH:mm:ss"},
	{name: optURL, shorthand: "u", kind: kindString, scope: scopeRun,
		usage: "URL of the rawrepo record service, e.g. http://rawrepo-record-service.fbstest.svc.cloud.dbc.dk"},
	{name: optFile, shorthand: "o", kind: kindString, scope: scopeRun,
		usage: "Output file, replaced only when the dump succeeds"},
	{name: optDryRun, kind: kindBool, scope: scopeAll,
		usage: "Only print the record count, nothing is written"},
	{name: optConfig, kind: kindString, scope: scopeRun,
		usage: "Optional YAML config file"},
	{name: optLogLevel, kind: kindString, scope: scopeRun,
		usage: "Log level (debug, info, warn, error)"},
	{name: optLogFormat, kind: kindString, scope: scopeRun,
		usage: "Log format (console, json)"},
}

func lookupOption(name string) (option, bool) {
	for _, opt := range options {
		if opt.name == name {
			return opt, true
		}
	}
	return option{}, false
}

// register declares every option of the table on fs
func register(fs *pflag.FlagSet) {
	for _, opt := range options {
		switch opt.kind {
		case kindString:
			fs.StringP(opt.name, opt.shorthand, opt.def, opt.usage)
		case kindStrings:
			fs.StringSliceP(opt.name, opt.shorthand, nil, opt.usage)
		case kindInts:
			fs.IntSliceP(opt.name, opt.shorthand, nil, opt.usage)
		case kindBool:
			fs.BoolP(opt.name, opt.shorthand, false, opt.usage)
		default:
			panic(fmt.Sprintf("cli: option %s has unknown kind %d", opt.name, opt.kind))
		}
	}
}

// label renders an option the way error messages name it, e.g. -a/--agencies
func (o option) label() string {
	switch {
	case o.shorthand != "":
		return "-" + o.shorthand + "/--" + o.name
	case o.legacy != "":
		return "-" + o.legacy + "/--" + o.name
	default:
		return "--" + o.name
	}
}

func labelOf(name string) string {
	if opt, ok := lookupOption(name); ok {
		return opt.label()
	}
	return "--" + name
}
