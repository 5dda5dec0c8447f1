package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Simulation SimulationConfig `yaml:"simulation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// SimulationConfig is the versioned payout policy. Every knob the simulation
// core branches on lives here, so tuning the product is a config edit rather
// than a constant buried in a generator.
type SimulationConfig struct {
	MinDeposit       float64 `yaml:"min_deposit"`       // plan initialization threshold
	MonthlyRateMin   float64 `yaml:"monthly_rate_min"`  // closed band, fraction
	MonthlyRateMax   float64 `yaml:"monthly_rate_max"`
	PlanMonths       int     `yaml:"plan_months"`
	TradeCountMin    int     `yaml:"trade_count_min"`
	TradeCountMax    int     `yaml:"trade_count_max"`
	WinRateMin       float64 `yaml:"win_rate_min"`
	WinRateMax       float64 `yaml:"win_rate_max"`
	LockedRatio      float64 `yaml:"locked_ratio"`      // share of portfolio shown as open positions
	ReconcileEpsilon float64 `yaml:"reconcile_epsilon"` // trade batch sum tolerance, USD
}

type SchedulerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DailyCron   string `yaml:"daily_cron"`
	UserDelayMs int    `yaml:"user_delay_ms"` // pacing between users in a batch run
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Override with environment variables if present
	cfg.loadFromEnv()
	cfg.applyDefaults()

	if err := cfg.Simulation.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// JWT
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.JWT.ExpireHours = hours
		}
	}

	// Scheduler
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		c.Scheduler.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SCHEDULER_DAILY_CRON"); v != "" {
		c.Scheduler.DailyCron = v
	}

	// Log
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	s := &c.Simulation
	if s.MinDeposit == 0 {
		s.MinDeposit = 100
	}
	if s.MonthlyRateMin == 0 && s.MonthlyRateMax == 0 {
		s.MonthlyRateMin = 0.15
		s.MonthlyRateMax = 0.21
	}
	if s.PlanMonths == 0 {
		s.PlanMonths = 12
	}
	if s.TradeCountMin == 0 && s.TradeCountMax == 0 {
		s.TradeCountMin = 300
		s.TradeCountMax = 400
	}
	if s.WinRateMin == 0 && s.WinRateMax == 0 {
		s.WinRateMin = 0.60
		s.WinRateMax = 0.85
	}
	if s.LockedRatio == 0 {
		s.LockedRatio = 0.80
	}
	if s.ReconcileEpsilon == 0 {
		s.ReconcileEpsilon = 0.01
	}

	if c.Scheduler.DailyCron == "" {
		c.Scheduler.DailyCron = "0 0 * * *"
	}
	if c.Scheduler.UserDelayMs == 0 {
		c.Scheduler.UserDelayMs = 100
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects bands the samplers cannot draw from.
func (s *SimulationConfig) Validate() error {
	if s.MonthlyRateMin <= 0 || s.MonthlyRateMax < s.MonthlyRateMin {
		return fmt.Errorf("invalid monthly rate band [%v, %v]", s.MonthlyRateMin, s.MonthlyRateMax)
	}
	if s.TradeCountMin <= 0 || s.TradeCountMax < s.TradeCountMin {
		return fmt.Errorf("invalid trade count range [%d, %d]", s.TradeCountMin, s.TradeCountMax)
	}
	if s.WinRateMin <= 0 || s.WinRateMax < s.WinRateMin || s.WinRateMax >= 1 {
		return fmt.Errorf("invalid win rate band [%v, %v]", s.WinRateMin, s.WinRateMax)
	}
	if s.LockedRatio < 0 || s.LockedRatio >= 1 {
		return fmt.Errorf("invalid locked ratio %v", s.LockedRatio)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
