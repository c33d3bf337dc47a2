package executor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/template"
	"github.com/oliveagle/jsonpath"
	"go.uber.org/zap"
)

// executeHTTPRequest performs the outbound call with a bounded timeout. On
// success the body can be stored whole and individual fields extracted via
// dotted/indexed paths; a path missing from the response skips that one
// mapping only.
func (r *Registry) executeHTTPRequest(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.HTTPRequestConfig)

	url := template.Interpolate(cfg.URL, sc)
	body := template.Interpolate(cfg.Body, sc)
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = template.Interpolate(v, sc)
	}

	timeout := DEFAULT_HTTP_TIMEOUT
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	resp, err := r.httpCaller.Call(sc.ctx, strings.ToUpper(cfg.Method), url, headers, body, timeout)
	if err != nil {
		return Fail(fmt.Errorf("http request on node %s: %w", node.Id, err))
	}
	if resp.StatusCode >= 400 {
		return Fail(fmt.Errorf("http request on node %s returned status %d", node.Id, resp.StatusCode))
	}

	var doc any
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &doc); err != nil {
			doc = string(resp.Body)
		}
	}

	if len(cfg.VariableName) > 0 {
		if err := sc.setVariable(cfg.VariableName, model.SCOPE_SESSION, model.ValueOf(doc)); err != nil {
			return Fail(err)
		}
	}

	for _, mapping := range cfg.FieldMappings {
		value, err := jsonpath.JsonPathLookup(doc, toJSONPath(mapping.Path))
		if err != nil {
			logger.Debug("http field mapping skipped, path not found",
				zap.String("executionId", sc.execCtx.Id), zap.String("path", mapping.Path))
			continue
		}
		if err := sc.setVariable(mapping.VariableName, model.SCOPE_SESSION, model.ValueOf(value)); err != nil {
			return Fail(err)
		}
	}
	return Advance()
}

// toJSONPath turns a dotted/indexed mapping path like data.items[0].id into
// the $.data.items[0].id form the lookup library expects.
func toJSONPath(path string) string {
	if strings.HasPrefix(path, "$") {
		return path
	}
	return "$." + path
}
