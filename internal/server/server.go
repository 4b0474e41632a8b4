// Package server is the browser-based presentation shell: a form that
// collects a question and shows the answer plus the captured log lines.
package server

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cultrix/deepresearch/config"
	"github.com/cultrix/deepresearch/internal/runtime"
)

const keysUpdatedMessage = "API keys have been updated successfully! Please restart the agent for changes to take effect."

type Server struct {
	cfg  *config.Config
	rt   *runtime.Runtime
	pool *runtime.Pool
	log  *log.Logger
}

func New(cfg *config.Config, rt *runtime.Runtime, pool *runtime.Pool) *Server {
	return &Server{
		cfg:  cfg,
		rt:   rt,
		pool: pool,
		log:  log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

// Echo builds the configured echo instance; split from Run for tests.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.log.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	e.GET("/", s.index)
	e.POST("/api/keys", s.updateKeys)
	e.POST("/api/ask", s.ask)
	return e
}

// Run blocks serving the UI on the configured address.
func (s *Server) Run() error {
	e := s.Echo()
	s.log.Printf("listening on %s", s.cfg.Server.Address)
	return e.Start(s.cfg.Server.Address)
}

func (s *Server) index(c echo.Context) error {
	var sb strings.Builder
	if err := indexTemplate.Execute(&sb, map[string]any{
		"Model": s.cfg.LLM.DefaultModel,
	}); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, sb.String())
}

type keysRequest struct {
	OpenAIAPIKey string `json:"openai_api_key"`
	SerperAPIKey string `json:"serper_api_key"`
	HFToken      string `json:"hf_token"`
}

// updateKeys sets the three credential environment variables at runtime;
// the next agent construction observes the new values.
func (s *Server) updateKeys(c echo.Context) error {
	var req keysRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	os.Setenv("OPENAI_API_KEY", req.OpenAIAPIKey)
	os.Setenv("SERPER_API_KEY", req.SerperAPIKey)
	os.Setenv("HF_TOKEN", req.HFToken)
	s.log.Printf("credentials updated via UI")
	return c.JSON(http.StatusOK, map[string]string{"message": keysUpdatedMessage})
}

type askRequest struct {
	Question string `json:"question"`
	ModelID  string `json:"model_id"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Logs   string `json:"logs"`
}

// ask runs one question through the shared handle on the worker pool. The
// log buffer is cleared at the start so the response carries only this
// run's lines. Failures surface in the response body together with the
// captured logs, mirroring the CLI's stderr behavior.
func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	s.rt.Sink().DrainAndClear()
	ctx := c.Request().Context()
	handle, err := s.rt.GetOrCreate(ctx, req.ModelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, askResponse{
			Answer: "Error: " + err.Error(),
			Logs:   strings.Join(s.rt.Sink().Lines(), "\n"),
		})
	}
	answer, err := s.pool.Submit(ctx, handle, req.Question).Wait()
	logs := strings.Join(s.rt.Sink().Lines(), "\n")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, askResponse{Answer: "Error: " + err.Error(), Logs: logs})
	}
	return c.JSON(http.StatusOK, askResponse{Answer: answer, Logs: logs})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Open Deep Research</title>
<style>
body { background-color: #2c2c2c; color: #ffffff; font-family: sans-serif; max-width: 900px; margin: 2em auto; }
.panel { background-color: #3a3a3a; border-radius: 10px; padding: 20px; margin-bottom: 1em; }
h1, h2 { color: #79c0ff; }
input, textarea { width: 100%; background: #222; color: #eee; border: 1px solid #555; padding: 8px; box-sizing: border-box; }
button { background: #79c0ff; border: none; padding: 10px 16px; border-radius: 6px; cursor: pointer; margin-top: 8px; }
pre { white-space: pre-wrap; background: #222; padding: 10px; border-radius: 6px; max-height: 400px; overflow-y: auto; }
</style>
</head>
<body>
<h1>Open Deep Research</h1>
<div class="panel">
  <h2>Configuration</h2>
  <input id="openai" type="password" placeholder="OPENAI_API_KEY">
  <input id="serper" type="password" placeholder="SERPER_API_KEY">
  <input id="hf" type="password" placeholder="HF_TOKEN">
  <button onclick="updateKeys()">Update Keys</button>
  <p id="keys-status"><em>(No keys set yet)</em></p>
</div>
<div class="panel">
  <h2>Ask your question (model: {{.Model}})</h2>
  <textarea id="question" rows="3" placeholder="Enter your question here..."></textarea>
  <button onclick="ask()">Get Answer</button>
  <h2>Answer</h2>
  <pre id="answer"></pre>
  <h2>Agent Logs</h2>
  <pre id="logs"></pre>
</div>
<script>
async function updateKeys() {
  const res = await fetch('/api/keys', {method: 'POST', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({openai_api_key: openai.value, serper_api_key: serper.value, hf_token: hf.value})});
  const data = await res.json();
  document.getElementById('keys-status').textContent = data.message || data.error;
}
async function ask() {
  document.getElementById('answer').textContent = 'Working...';
  const res = await fetch('/api/ask', {method: 'POST', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({question: question.value})});
  const data = await res.json();
  document.getElementById('answer').textContent = data.answer || data.error;
  document.getElementById('logs').textContent = data.logs || '';
}
</script>
</body>
</html>`))
