package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultEndpoint = "https://gdb.acg.maine.edu:7201/repositories/PFAS"

type SPARQLCfg struct {
	Endpoint string
	User     string
	Password string
	Method   string
	Timeout  time.Duration
}

type SessionCfg struct {
	Backend   string // memory | redis
	RedisAddr string
	TTL       time.Duration
}

type EventsCfg struct {
	Enabled bool
	Brokers string
	Topic   string
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	SPARQL         SPARQLCfg
	VocabularyFile string
	Session        SessionCfg
	Events         EventsCfg
	Metrics        MetricsCfg
	H3Res          int
	DebugLogSize   int
	CategoryColors map[string]string
}

func FromEnv() Config {
	res := getint("H3_RES", 8)
	if res < 0 || res > 15 {
		res = 8
	}
	logSize := getint("DEBUG_LOG_SIZE", 10)
	if logSize < 1 {
		logSize = 10
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		SPARQL: SPARQLCfg{
			Endpoint: getenv("SPARQL_ENDPOINT", DefaultEndpoint),
			User:     getenv("SPARQL_USER", ""),
			Password: getenv("SPARQL_PASSWORD", ""),
			Method:   strings.ToUpper(getenv("SPARQL_METHOD", "GET")),
			Timeout:  getduration("SPARQL_TIMEOUT", 30*time.Second),
		},
		VocabularyFile: getenv("VOCABULARY_FILE", ""),
		Session: SessionCfg{
			Backend:   strings.ToLower(getenv("SESSION_BACKEND", "memory")),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			TTL:       getduration("SESSION_TTL", 0),
		},
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "sawgraph-query-events"),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
		H3Res:          res,
		DebugLogSize:   logSize,
		CategoryColors: parseStringMap(getenv("CATEGORY_COLORS", "")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "Solid Waste Landfill=brown,National Security=darkblue" into map
func parseStringMap(s string) map[string]string {
	out := map[string]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
