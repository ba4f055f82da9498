package convert

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/neko2sing/internal/jsontree"
	"github.com/John-Robertt/neko2sing/internal/model"
)

type ConvertError struct {
	AppError model.AppError
	Cause    error
}

func (e *ConvertError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ConvertError) Unwrap() error { return e.Cause }

type Options struct {
	// DefaultPort replaces a missing or falsy bean.port. 0 means 443.
	DefaultPort int
}

// requiredFields must survive conversion, override merge and pruning; an
// entry missing any of them is unusable by the routing engine.
var requiredFields = [...]string{"tag", "server", "server_port", "type", "uuid"}

// Outbound maps one NekoRay profile document onto one sing-box outbound
// entry. A nil error means the entry is usable; every failure mode is a
// *ConvertError scoped to this single profile.
func Outbound(doc map[string]any, opt Options) (map[string]any, error) {
	defaultPort := opt.DefaultPort
	if defaultPort == 0 {
		defaultPort = 443
	}

	name := jsontree.Value(doc, "bean", "name")
	if !jsontree.Truthy(name) {
		return nil, newConvertError(doc, "PROFILE_FIELD_MISSING", "缺少节点名称 bean.name", "", nil)
	}
	server := jsontree.Value(doc, "bean", "addr")
	if !jsontree.Truthy(server) {
		return nil, newConvertError(doc, "PROFILE_FIELD_MISSING", "缺少服务器地址 bean.addr", "", nil)
	}
	scheme := jsontree.Value(doc, "type")
	if !jsontree.Truthy(scheme) {
		return nil, newConvertError(doc, "PROFILE_FIELD_MISSING", "缺少连接协议 type", "", nil)
	}
	uuid := jsontree.Value(doc, "bean", "pass")
	if !jsontree.Truthy(uuid) {
		return nil, newConvertError(doc, "PROFILE_FIELD_MISSING", "缺少连接凭证 bean.pass", "", nil)
	}

	port := defaultPort
	if raw := jsontree.Value(doc, "bean", "port"); jsontree.Truthy(raw) {
		n, ok := jsontree.Int(raw)
		if !ok {
			return nil, newConvertError(doc, "PROFILE_INVALID_PORT", fmt.Sprintf("端口无法解析为整数：%v", raw), "", nil)
		}
		// A port that coerces to 0 falls back to the default.
		if n != 0 {
			port = n
		}
	}

	var reality map[string]any
	if pbk := jsontree.Value(doc, "bean", "stream", "pbk"); jsontree.Truthy(pbk) {
		reality = map[string]any{
			"enabled":    true,
			"public_key": pbk,
			"short_id":   jsontree.Value(doc, "bean", "stream", "sid"),
		}
	}

	var transport map[string]any
	if hType := jsontree.Value(doc, "bean", "stream", "h_type"); jsontree.Truthy(hType) {
		transport = map[string]any{
			"headers": map[string]any{
				"Host": jsontree.Value(doc, "bean", "stream", "host"),
			},
			"type":   hType,
			"method": "GET",
			"path":   jsontree.Value(doc, "bean", "stream", "path"),
		}
	}

	var alpn []any
	if raw := jsontree.Value(doc, "bean", "stream", "alpn"); jsontree.Truthy(raw) {
		s, ok := raw.(string)
		if !ok {
			return nil, newConvertError(doc, "PROFILE_INVALID_FIELD", fmt.Sprintf("alpn 必须是逗号分隔字符串：%v", raw), "", nil)
		}
		// Split on every comma, no whitespace normalization.
		for _, token := range strings.Split(s, ",") {
			alpn = append(alpn, token)
		}
	}

	insecure := jsontree.Value(doc, "bean", "stream", "insecure")
	if !jsontree.Truthy(insecure) {
		insecure = false
	}
	utls := jsontree.Value(doc, "bean", "stream", "utls")

	result := map[string]any{
		"tag":             fmt.Sprintf("%s - %v", formatID(jsontree.Value(doc, "id")), name),
		"server":          server,
		"server_port":     port,
		"type":            scheme,
		"uuid":            uuid,
		"flow":            jsontree.Value(doc, "bean", "flow"),
		"domain_strategy": nil,
		"packet_encoding": jsontree.Value(doc, "bean", "stream", "pac_enc"),
		"tls": map[string]any{
			"enabled":     jsontree.Value(doc, "bean", "stream", "sec") == "tls",
			"insecure":    insecure,
			"server_name": jsontree.Value(doc, "bean", "stream", "sni"),
			"reality":     nilIfEmpty(reality),
			"alpn":        nilIfEmptyList(alpn),
			"certificate": jsontree.Value(doc, "bean", "stream", "cert"),
			"utls": map[string]any{
				// The raw value doubles as on/off flag and fingerprint name.
				"enabled":     jsontree.Truthy(utls),
				"fingerprint": utls,
			},
		},
		"transport": nilIfEmpty(transport),
	}

	if raw := jsontree.Value(doc, "bean", "c_out"); jsontree.Truthy(raw) {
		s, ok := raw.(string)
		if !ok {
			return nil, newConvertError(doc, "OVERRIDE_PARSE_ERROR", "c_out 覆盖配置必须是字符串", "", nil)
		}
		var override map[string]any
		if err := json.Unmarshal([]byte(s), &override); err != nil {
			return nil, newConvertError(doc, "OVERRIDE_PARSE_ERROR", "c_out 覆盖配置不是合法 JSON 对象", `example: {"flow":"xtls-rprx-vision"}`, err)
		}
		for k, v := range override {
			result[k] = v
		}
	}

	pruned := jsontree.PruneNulls(result).(map[string]any)

	// An override may null out fields the rest of the pipeline relies on;
	// catch that here instead of emitting a broken entry.
	for _, f := range requiredFields {
		if _, ok := pruned[f]; !ok {
			return nil, newConvertError(doc, "OVERRIDE_REMOVED_REQUIRED", fmt.Sprintf("覆盖配置移除了必需字段：%s", f), "", nil)
		}
	}

	return pruned, nil
}

func formatID(v any) string {
	n, ok := jsontree.Int(v)
	if !ok {
		return "0"
	}
	return strconv.Itoa(n)
}

func nilIfEmpty(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func nilIfEmptyList(l []any) any {
	if l == nil {
		return nil
	}
	return l
}

// Snippet renders a profile or outbound document as a single compacted line
// for diagnostics, truncated so stderr stays readable.
func Snippet(doc any) string {
	b, err := json.Marshal(doc)
	if err != nil {
		return truncateSnippet(fmt.Sprintf("%v", doc), 200)
	}
	return truncateSnippet(string(b), 200)
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func newConvertError(doc map[string]any, code string, message string, hint string, cause error) error {
	return &ConvertError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "convert",
			Snippet: Snippet(doc),
			Hint:    hint,
		},
		Cause: cause,
	}
}
