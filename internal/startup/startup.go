package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-explorer/internal/logging"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all client configuration
type Config struct {
	ServerURL           string
	PollInterval        time.Duration
	FetchLimit          int
	RequestTimeout      time.Duration
	RequestRate         float64
	BatchBackoffInitial time.Duration
	BatchBackoffMax     time.Duration
	SettingsDir         string
	MetricsEnabled      bool
	MetricsPort         string
	SimilarityCacheTTL  time.Duration
	ConfigFile          string

	// Derived paths
	SettingsPath string
}

// fileConfig mirrors Config for the optional YAML overlay named by CONFIG_FILE.
// Values are strings so they go through the same parsing as the environment.
type fileConfig struct {
	ServerURL           string `yaml:"server_url"`
	PollInterval        string `yaml:"poll_interval"`
	FetchLimit          string `yaml:"fetch_limit"`
	RequestTimeout      string `yaml:"request_timeout"`
	RequestRate         string `yaml:"request_rate"`
	BatchBackoffInitial string `yaml:"batch_backoff_initial"`
	BatchBackoffMax     string `yaml:"batch_backoff_max"`
	SettingsDir         string `yaml:"settings_dir"`
	MetricsEnabled      string `yaml:"metrics_enabled"`
	MetricsPort         string `yaml:"metrics_port"`
	SimilarityCacheTTL  string `yaml:"similarity_cache_ttl"`
}

// LoadConfig loads configuration from an optional YAML file and environment
// variables. Environment variables take precedence over the file.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	configFile := os.Getenv("CONFIG_FILE")
	file, err := readConfigFile(configFile)
	if err != nil {
		return nil, err
	}

	defaultSettingsDir := ".media-explorer"
	if home, err := os.UserHomeDir(); err == nil {
		defaultSettingsDir = filepath.Join(home, ".media-explorer")
	}

	serverURL := getEnv("SERVER_URL", fallback(file.ServerURL, "http://127.0.0.1:8000"))
	pollInterval := getEnvDuration("POLL_INTERVAL", fallback(file.PollInterval, "1s"), time.Second)
	fetchLimit := getEnvInt("FETCH_LIMIT", fallback(file.FetchLimit, "100"), 100)
	requestTimeout := getEnvDuration("REQUEST_TIMEOUT", fallback(file.RequestTimeout, "30s"), 30*time.Second)
	requestRate := getEnvFloat("REQUEST_RATE", fallback(file.RequestRate, "20"), 20)
	backoffInitial := getEnvDuration("BATCH_BACKOFF_INITIAL", fallback(file.BatchBackoffInitial, "250ms"), 250*time.Millisecond)
	backoffMax := getEnvDuration("BATCH_BACKOFF_MAX", fallback(file.BatchBackoffMax, "5s"), 5*time.Second)
	settingsDir := getEnv("SETTINGS_DIR", fallback(file.SettingsDir, defaultSettingsDir))
	metricsEnabled := getEnvBool("METRICS_ENABLED", parseBoolDefault(file.MetricsEnabled, false))
	metricsPort := getEnv("METRICS_PORT", fallback(file.MetricsPort, "9464"))
	similarityTTL := getEnvDuration("SIMILARITY_CACHE_TTL", fallback(file.SimilarityCacheTTL, "5m"), 5*time.Minute)

	serverURL = strings.TrimRight(serverURL, "/")
	if serverURL == "" {
		return nil, fmt.Errorf("SERVER_URL must not be empty")
	}
	if fetchLimit <= 0 {
		logging.Warn("  Invalid FETCH_LIMIT %d, using default: 100", fetchLimit)
		fetchLimit = 100
	}
	if pollInterval <= 0 {
		logging.Warn("  Invalid POLL_INTERVAL %v, using default: 1s", pollInterval)
		pollInterval = time.Second
	}
	if backoffMax < backoffInitial {
		backoffMax = backoffInitial
	}

	logging.Info("  CONFIG_FILE:           %s", displayOrNone(configFile))
	logging.Info("  SERVER_URL:            %s", serverURL)
	logging.Info("  POLL_INTERVAL:         %v", pollInterval)
	logging.Info("  FETCH_LIMIT:           %d", fetchLimit)
	logging.Info("  REQUEST_TIMEOUT:       %v", requestTimeout)
	logging.Info("  REQUEST_RATE:          %v", requestRate)
	logging.Info("  BATCH_BACKOFF_INITIAL: %v", backoffInitial)
	logging.Info("  BATCH_BACKOFF_MAX:     %v", backoffMax)
	logging.Info("  SETTINGS_DIR:          %s", settingsDir)
	logging.Info("  METRICS_ENABLED:       %v", metricsEnabled)
	logging.Info("  METRICS_PORT:          %s", metricsPort)
	logging.Info("  SIMILARITY_CACHE_TTL:  %v", similarityTTL)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	settingsDir, err = filepath.Abs(settingsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings directory path: %w", err)
	}

	return &Config{
		ServerURL:           serverURL,
		PollInterval:        pollInterval,
		FetchLimit:          fetchLimit,
		RequestTimeout:      requestTimeout,
		RequestRate:         requestRate,
		BatchBackoffInitial: backoffInitial,
		BatchBackoffMax:     backoffMax,
		SettingsDir:         settingsDir,
		MetricsEnabled:      metricsEnabled,
		MetricsPort:         metricsPort,
		SimilarityCacheTTL:  similarityTTL,
		ConfigFile:          configFile,
		SettingsPath:        filepath.Join(settingsDir, "settings.db"),
	}, nil
}

// EnsureSettingsDir creates the settings directory and verifies it is writable.
func EnsureSettingsDir(config *Config) error {
	if err := ensureDirectory(config.SettingsDir, "settings"); err != nil {
		return fmt.Errorf("settings directory error: %w", err)
	}
	if err := testWriteAccess(config.SettingsDir); err != nil {
		return fmt.Errorf("settings directory is not writable: %w", err)
	}
	logging.Debug("  [OK] Settings directory is writable")
	return nil
}

func readConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	logging.Debug("  Loaded config overlay from %s", path)
	return fc, nil
}

func fallback(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func displayOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogSettingsInit logs settings store initialization
func LogSettingsInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SETTINGS INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Settings store %s opened in %v", path, duration)
}

// LogSessionInit logs the connection to the indexing service
func LogSessionInit(serverURL string, directories int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SESSION INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Server:       %s", serverURL)
	logging.Info("  Directories:  %d", directories)
	logging.Info("  [OK] Session ready in %v", duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the routes of the local metrics server at debug level
func LogHTTPRoutes(router *mux.Router) {
	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// ServerConfig holds configuration for the metrics server startup log
type ServerConfig struct {
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful startup with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CLIENT STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Metrics:         %s", enabledString(config.MetricsEnabled))
	if config.MetricsEnabled {
		logging.Info("    http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (%s)", reason)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// PrintBanner writes the startup banner and build information.
func PrintBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___         ______            __
   /  |/  /__  ____/ (_)___ _  / ____/  ______  / /___  ________  _____
  / /|_/ / _ \/ __  / / __ '/ / __/ | |/_/ __ \/ / __ \/ ___/ _ \/ ___/
 / /  / /  __/ /_/ / / /_/ / / /____>  </ /_/ / / /_/ / /  /  __/ /
/_/  /_/\___/\__,_/_/\__,_/ /_____/_/|_/ .___/_/\____/_/   \___/_/
                                      /_/
------------------------------------------------------------`
	logging.Printf("%s", banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
	logSystemInfo()
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func parseBoolDefault(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key, raw string, defaultValue int) int {
	value := getEnv(key, raw)
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("  Invalid %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key, raw string, defaultValue float64) float64 {
	value := getEnv(key, raw)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		logging.Warn("  Invalid %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key, raw string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, raw)
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("  Invalid %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
