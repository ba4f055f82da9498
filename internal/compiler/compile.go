package compiler

import (
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/John-Robertt/neko2sing/internal/convert"
	"github.com/John-Robertt/neko2sing/internal/settings"
)

// Result is one finished run: the aggregate document plus skip accounting for
// strict mode.
type Result struct {
	Document map[string]any
	Accepted int
	Rejected int
}

// dedupFields define outbound identity: two profiles pointing at the same
// endpoint with the same credential and scheme are the same outbound, display
// name aside.
var dedupFields = [...]string{"server", "server_port", "type", "uuid"}

// Aggregate converts profiles in order, drops rejects and duplicates with a
// diagnosis, and assembles the final document: the two fixed pass-through
// outbounds, every accepted entry in acceptance order, then one urltest
// group referencing all accepted tags.
func Aggregate(profiles []map[string]any, set settings.Settings, log *zap.Logger) Result {
	res := Result{}
	outbounds := make([]map[string]any, 0, len(profiles))

	for _, p := range profiles {
		out, err := convert.Outbound(p, convert.Options{DefaultPort: set.DefaultPort})
		if err != nil {
			logConvertError(log, err)
			res.Rejected++
			continue
		}
		if sameOutboundExists(outbounds, out) {
			log.Warn("出站配置已存在，丢弃重复节点",
				zap.String("code", "DUPLICATE_OUTBOUND"),
				zap.String("outbound", convert.Snippet(out)))
			res.Rejected++
			continue
		}
		outbounds = append(outbounds, out)
	}
	res.Accepted = len(outbounds)

	all := make([]any, 0, len(outbounds)+3)
	all = append(all,
		map[string]any{"type": "direct", "tag": "direct-out"},
		map[string]any{"type": "dns", "tag": "dns-out"},
	)
	for _, o := range outbounds {
		all = append(all, o)
	}
	// Synthesized once, after the full pass, so the reference list is exactly
	// the accepted tags and never includes the group itself.
	all = append(all, urltestOutbound(outbounds, set.URLTest))

	res.Document = map[string]any{"outbounds": all}
	return res
}

func logConvertError(log *zap.Logger, err error) {
	var ce *convert.ConvertError
	if errors.As(err, &ce) {
		fields := []zap.Field{
			zap.String("code", ce.AppError.Code),
			zap.String("profile", ce.AppError.Snippet),
		}
		if ce.Cause != nil {
			fields = append(fields, zap.Error(ce.Cause))
		}
		log.Warn(ce.AppError.Message, fields...)
		return
	}
	log.Warn("profile 转换失败", zap.Error(err))
}

// sameOutboundExists reports whether an accepted entry already claims the
// candidate's (server, server_port, type, uuid) tuple.
func sameOutboundExists(outbounds []map[string]any, item map[string]any) bool {
	for _, o := range outbounds {
		same := true
		for _, f := range dedupFields {
			if !valueEqual(o[f], item[f]) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

// valueEqual compares two decoded-JSON values, treating 443 and 443.0 as the
// same port no matter whether the value was computed or merged from c_out.
func valueEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func urltestOutbound(outbounds []map[string]any, ut settings.URLTest) map[string]any {
	tags := make([]any, 0, len(outbounds))
	for _, o := range outbounds {
		tags = append(tags, o["tag"])
	}
	return map[string]any{
		"type":                        "urltest",
		"tag":                         "auto",
		"outbounds":                   tags,
		"url":                         ut.URL,
		"interval":                    ut.Interval,
		"tolerance":                   ut.Tolerance,
		"idle_timeout":                ut.IdleTimeout,
		"interrupt_exist_connections": ut.InterruptExistConnections,
	}
}
