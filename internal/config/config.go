package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"meetup_bot/internal/schedule"
)

type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	RabbitMQ  RabbitMQConfig `yaml:"rabbitmq"`
	Meetup    MeetupConfig   `yaml:"meetup"`
	Events    EventsConfig   `yaml:"events"`
	Schedule  ScheduleConfig `yaml:"schedule"`
	Delivery  DeliveryConfig `yaml:"delivery"`
	Poll      PollConfig     `yaml:"poll"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// DatabaseConfig selects the schedule store. Driver is "postgres" or
// "sqlite"; Path is only used by sqlite.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type MeetupConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Token        string        `yaml:"token"`
	ProNetworkID string        `yaml:"pro_network_id"`
	GroupsFile   string        `yaml:"groups_file"`
	Umbrella     string        `yaml:"umbrella"`
	Timeout      time.Duration `yaml:"timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

type EventsConfig struct {
	Location   string        `yaml:"location"`
	Exclusions []string      `yaml:"exclusions"`
	Lookahead  time.Duration `yaml:"lookahead"`
}

// ScheduleConfig describes the default weekly schedule. LocalTime is the
// publish time of day in Timezone.
type ScheduleConfig struct {
	Timezone   string        `yaml:"timezone"`
	LocalTime  string        `yaml:"local_time"`
	ActiveDays []string      `yaml:"active_days"`
	Window     time.Duration `yaml:"window"`
}

func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Days resolves ActiveDays to weekdays.
func (s ScheduleConfig) Days() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(s.ActiveDays))
	for _, name := range s.ActiveDays {
		d, err := schedule.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

type DeliveryConfig struct {
	Slack    SlackConfig     `yaml:"slack"`
	Discord  DiscordConfig   `yaml:"discord"`
	Channels []ChannelConfig `yaml:"channels"`
}

type SlackConfig struct {
	Token string `yaml:"token"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
}

// ChannelConfig routes the digest to one channel. Target is "slack",
// "discord" or "rabbitmq".
type ChannelConfig struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
	ID     string `yaml:"id"`
}

type PollConfig struct {
	Spec       string        `yaml:"spec"`
	Timeout    time.Duration `yaml:"timeout"`
	RunOnStart bool          `yaml:"run_on_start"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "meetup_bot.db"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "meetup_bot"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "digests"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "meetup_digests"
	}
	if c.Meetup.Endpoint == "" {
		c.Meetup.Endpoint = "https://api.meetup.com/gql"
	}
	if c.Meetup.GroupsFile == "" {
		c.Meetup.GroupsFile = "groups.csv"
	}
	if c.Meetup.Umbrella == "" {
		c.Meetup.Umbrella = "techlahoma-foundation"
	}
	if c.Meetup.Timeout == 0 {
		c.Meetup.Timeout = 30 * time.Second
	}
	if c.Events.Location == "" {
		c.Events.Location = "Oklahoma City"
	}
	if c.Events.Lookahead == 0 {
		c.Events.Lookahead = 7 * 24 * time.Hour
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Chicago"
	}
	if c.Schedule.LocalTime == "" {
		c.Schedule.LocalTime = "09:00"
	}
	if len(c.Schedule.ActiveDays) == 0 {
		c.Schedule.ActiveDays = []string{"Monday", "Wednesday", "Friday"}
	}
	if c.Schedule.Window == 0 {
		c.Schedule.Window = schedule.DefaultWindow
	}
	if c.Poll.Spec == "" {
		c.Poll.Spec = "@hourly"
	}
	if c.Poll.Timeout == 0 {
		c.Poll.Timeout = 5 * time.Minute
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// Validate rejects settings that would only fail later at run time.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if _, err := c.Schedule.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := schedule.ParseClock(c.Schedule.LocalTime); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Schedule.Days(); err != nil {
		errs = append(errs, err)
	}
	if err := c.checkWindow(); err != nil {
		errs = append(errs, err)
	}
	for _, ch := range c.Delivery.Channels {
		switch ch.Target {
		case "slack", "discord", "rabbitmq":
		default:
			errs = append(errs, fmt.Errorf("channel %q: unknown target %q", ch.Name, ch.Target))
		}
		if ch.ID == "" && ch.Target != "rabbitmq" {
			errs = append(errs, fmt.Errorf("channel %q: id is required", ch.Name))
		}
	}

	return errors.Join(errs...)
}

// checkWindow keeps the publish window and the poll cadence consistent: a
// window wider than half the poll interval lets one scheduled time match
// more than one poll.
func (c *Config) checkWindow() error {
	sched, err := cron.ParseStandard(c.Poll.Spec)
	if err != nil {
		return fmt.Errorf("parse poll spec %q: %w", c.Poll.Spec, err)
	}
	first := sched.Next(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	interval := sched.Next(first).Sub(first)
	if 2*c.Schedule.Window > interval {
		return fmt.Errorf("schedule window %s is wider than half the poll interval %s", c.Schedule.Window, interval)
	}
	return nil
}
