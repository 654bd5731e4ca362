// Command simplomon runs the blackbox monitoring daemon: it loads a
// declarative probe/notifier configuration, wires the probes and
// notifiers from it into the core scheduling engine, and serves the
// status HTTP surface until terminated. Grounded on cmd/probe/main.go's
// load-config / construct-components / gin-router / graceful-shutdown
// shape from the teacher repo.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/berthubert/go-simplomon/pkg/auth"
	"github.com/berthubert/go-simplomon/pkg/config"
	"github.com/berthubert/go-simplomon/pkg/correlator"
	"github.com/berthubert/go-simplomon/pkg/filter"
	"github.com/berthubert/go-simplomon/pkg/httpapi"
	"github.com/berthubert/go-simplomon/pkg/notify"
	"github.com/berthubert/go-simplomon/pkg/probe"
	"github.com/berthubert/go-simplomon/pkg/runner"
	"github.com/berthubert/go-simplomon/pkg/sink"
	"github.com/berthubert/go-simplomon/pkg/status"
)

func main() {
	log.Println("🔭 Starting simplomon...")

	cfg, err := config.Load(os.Args)
	if err != nil {
		log.Fatalf("❌ failed to load configuration: %v", err)
	}

	interval, err := time.ParseDuration(cfg.Daemon.Interval)
	if err != nil {
		log.Fatalf("❌ invalid daemon.interval: %v", err)
	}

	sk, err := sink.Open(cfg.Daemon.SinkPath)
	if err != nil {
		log.Fatalf("❌ failed to open measurement sink: %v", err)
	}
	defer sk.Close()

	statusSurface := status.New()

	dispatcher := notify.NewDispatcher()
	notifiers, err := buildNotifiers(cfg.Notifiers, sk)
	if err != nil {
		log.Fatalf("❌ failed to build notifiers: %v", err)
	}

	registry := probe.NewRegistry()
	if err := registerProbes(registry, cfg.Probes, notifiers, dispatcher, interval); err != nil {
		log.Fatalf("❌ failed to register probes: %v", err)
	}
	log.Printf("📋 registered %d probes, %d notifier channels", len(registry.All()), len(notifiers))

	f := filter.New(filter.DefaultRetention)
	c := correlator.New()
	r := runner.New(registry, f, c, dispatcher, sk, statusSurface, cfg.Daemon.MaxWorkers)

	basicAuth, err := auth.NewBasicAuth(cfg.Daemon.BasicAuthUser, cfg.Daemon.BasicAuthPass)
	if err != nil {
		log.Fatalf("❌ failed to configure basic auth: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(statusSurface, basicAuth, "")

	server := &http.Server{
		Addr:         cfg.Daemon.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("🚀 status surface listening on %s", cfg.Daemon.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ status surface failed: %v", err)
		}
	}()

	go r.RunForever(ctx, interval, cfg.Daemon.Workers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 shutting down simplomon...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ status surface forced to shutdown: %v", err)
	}
}

// buildNotifiers constructs one notify.Notifier per configured
// channel, plus the always-on sink and web notifiers (spec §4.6).
func buildNotifiers(configs []config.NotifierConfig, sk *sink.Sink) (map[string]*notify.Notifier, error) {
	notifiers := map[string]*notify.Notifier{
		"sink": notify.New(notify.NewSinkTransport(sk), 0),
		"web":  notify.New(notify.NewWebTransport(), 0),
	}

	for _, nc := range configs {
		transport, err := buildTransport(nc)
		if err != nil {
			return nil, fmt.Errorf("notifier %q: %w", nc.ID, err)
		}
		notifiers[nc.ID] = notify.New(transport, nc.MinMinutes)
	}
	return notifiers, nil
}

func buildTransport(nc config.NotifierConfig) (notify.Transport, error) {
	switch nc.Kind {
	case "pushover":
		return notify.NewPushover(nc.Params["user"], nc.Params["apiKey"]), nil
	case "ntfy":
		return notify.NewNtfy(nc.Params["url"], nc.Params["topic"], nc.Params["auth"]), nil
	case "telegram":
		return notify.NewTelegram(nc.Params["chatId"], nc.Params["apiKey"]), nil
	case "email":
		return notify.NewEmail(nc.Params["server"], nc.Params["from"], nc.Params["to"]), nil
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", nc.Kind)
	}
}

// registerProbes constructs each configured probe kind and registers
// it with its bound notifiers, mirroring the config-driven dispatch a
// Lua loader would otherwise perform in the original implementation.
func registerProbes(registry *probe.Registry, configs []config.ProbeConfig, notifiers map[string]*notify.Notifier, dispatcher *notify.Dispatcher, interval time.Duration) error {
	for i, pc := range configs {
		p, err := buildProbe(pc)
		if err != nil {
			return fmt.Errorf("probe at index %d (%s): %w", i, pc.Kind, err)
		}

		sensitivity := probe.ConfigSensitivity{
			MinFailures:   pc.Sensitivity.MinFailures,
			FailureWindow: pc.Sensitivity.FailureWindow,
			Mute:          pc.Sensitivity.Mute,
		}
		// The daily chime's window defaults to two cycles.
		if pc.Kind == "dailychime" && sensitivity.FailureWindow <= 0 {
			sensitivity.FailureWindow = int((2 * interval) / time.Second)
		}
		description := pc.Description
		if description == "" {
			description = p.Description()
		}

		cfg := registry.Register(pc.Kind, description, sensitivity, pc.Notifiers, p)

		for _, nid := range cfg.NotifierIDs {
			n, ok := notifiers[nid]
			if !ok {
				return fmt.Errorf("probe %s references unknown notifier id %q", cfg, nid)
			}
			dispatcher.Register(cfg.ID, n)
		}
	}
	return nil
}

// buildProbe dispatches on kind to the matching constructor in
// pkg/probe, pulling kind-specific parameters out of the generic
// params bag (spec §6's per-kind parameter table).
func buildProbe(pc config.ProbeConfig) (probe.Probe, error) {
	p := params(pc.Params)

	switch pc.Kind {
	case "dns":
		return probe.NewDNSProbe(p.str("server"), p.str("qname"), p.str("qtype"), p.strs("acceptable"), p.boolean("rd"), p.str("localIP")), nil
	case "dnssoa":
		return probe.NewDNSSOAProbe(p.str("domain"), p.strs("servers")), nil
	case "rrsig":
		return probe.NewRRSIGProbe(p.str("server"), p.str("qname"), p.str("qtype"), p.integer("minDays")), nil
	case "tcpportopen":
		return probe.NewTCPPortProbe(p.strs("servers"), p.ints("ports"), true), nil
	case "tcpportclosed":
		return probe.NewTCPPortProbe(p.strs("servers"), p.ints("ports"), false), nil
	case "ping":
		return probe.NewPingProbe(p.strs("servers"), p.str("localIP"), p.duration("timeout"), p.integer("size"), p.boolean("df")), nil
	case "https":
		h := probe.NewHTTPSProbe(p.str("url"))
		h.MinBytes = p.integer("minBytes")
		if days := p.integer("minCertDays"); days > 0 {
			h.MinCertDays = days
		}
		h.ServerIP = p.str("serverIP")
		h.LocalIP4 = p.str("localIP4")
		h.LocalIP6 = p.str("localIP6")
		h.Resolvers = p.strs("resolvers")
		if method := p.str("method"); method != "" {
			h.Method = method
		}
		if rx := p.str("regex"); rx != "" {
			re, err := regexp.Compile(rx)
			if err != nil {
				return nil, fmt.Errorf("invalid regex: %w", err)
			}
			h.Regex = re
		}
		h.PubkeyPin = p.str("pubkeyPin")
		return h, nil
	case "httpredir":
		return probe.NewHTTPRedirProbe(p.str("fromUrl"), p.str("toUrl")), nil
	case "smtp":
		s := probe.NewSMTPProbe(p.str("server"))
		s.ServerName = p.str("servername")
		s.From = p.str("from")
		s.To = p.str("to")
		if days := p.integer("minCertDays"); days > 0 {
			s.MinCertDays = days
		}
		return s, nil
	case "imap":
		return probe.NewIMAPProbe(p.str("server"), p.str("user"), p.str("password")), nil
	case "prometheus":
		return buildPrometheusProbe(p)
	case "external":
		e := probe.NewExternalProbe(p.str("cmd"))
		e.WantRC = p.integer("rc")
		if rx := p.str("regex"); rx != "" {
			re, err := regexp.Compile(rx)
			if err != nil {
				return nil, fmt.Errorf("invalid regex: %w", err)
			}
			e.Regex = re
		}
		return e, nil
	case "dailychime":
		return probe.NewDailyChimeProbe(p.str("instance"), p.integer("utcHour")), nil
	default:
		return nil, fmt.Errorf("unknown probe kind %q", pc.Kind)
	}
}

func buildPrometheusProbe(p params) (probe.Probe, error) {
	raw, ok := p["checks"].([]interface{})
	if !ok {
		return probe.NewPrometheusProbe(p.str("url")), nil
	}

	var checks []probe.PromCheck
	for _, item := range raw {
		cm, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		cp := params(cm)
		switch cp.str("kind") {
		case "DiskFree":
			checks = append(checks, probe.NewDiskFreeCheck(cp.str("mountpoint"), cp.float("gbMin")))
		case "AptPending":
			checks = append(checks, probe.NewAptPendingCheck(cp.integerOr("maxSec", -1), cp.integerOr("maxTot", -1)))
		case "Bandwidth":
			checks = append(checks, probe.NewBandwidthCheck(cp.floatOr("minMbit", -1), cp.floatOr("maxMbit", -1), cp.str("device"), cp.str("direction")))
		default:
			return nil, fmt.Errorf("unknown prometheus check kind %q", cp.str("kind"))
		}
	}
	return probe.NewPrometheusProbe(p.str("url"), checks...), nil
}

// params is a tiny accessor shim over a probe's generic parameter bag,
// tolerant of YAML's weakly-typed decode (strings, ints, floats,
// []interface{}) so each probe constructor above reads cleanly.
type params map[string]interface{}

func (p params) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func (p params) boolean(key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

func (p params) integer(key string) int {
	return p.integerOr(key, 0)
}

func (p params) integerOr(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (p params) float(key string) float64 {
	return p.floatOr(key, 0)
}

func (p params) floatOr(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (p params) duration(key string) time.Duration {
	if v, ok := p[key].(string); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 0
}

func (p params) strs(key string) []string {
	raw, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (p params) ints(key string) []int {
	raw, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int:
			out = append(out, n)
		case float64:
			out = append(out, int(n))
		}
	}
	return out
}
