package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/mrussa/orderbridge/internal/tags"
)

const DefaultEnvFile = ".env"

type Log struct {
	Level  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" validate:"oneof=json console"`
}

type Artifact struct {
	Bucket    string `env:"ARTIFACT_BUCKET"`
	Prefix    string `env:"ARTIFACT_PREFIX"`
	Endpoint  string `env:"ARTIFACT_ENDPOINT" validate:"omitempty,url"`
	Region    string `env:"ARTIFACT_REGION"`
	AccessKey string `env:"ARTIFACT_ACCESS_KEY" validate:"required_with=SecretKey"`
	SecretKey string `env:"ARTIFACT_SECRET_KEY" validate:"required_with=AccessKey"`
}

// Importer is the configuration of the import command.
type Importer struct {
	ShopifyStore      string `env:"SHOPIFY_STORE" validate:"required"`
	ShopifyToken      string `env:"SHOPIFY_TOKEN" validate:"required"`
	ShopifyAPIVersion string `env:"SHOPIFY_API_VERSION"`

	EverstoxShopID   string `env:"EVERSTOX_SHOP_ID"`
	EverstoxAPIHost  string `env:"EVERSTOX_API_HOST" validate:"hostname_port|hostname"`
	EverstoxAPIToken string `env:"EVERSTOX_API_TOKEN"`

	TagWhitelist string `env:"TAG_WHITELIST"`
	TagBlacklist string `env:"TAG_BLACKLIST"`
	TagRulesFile string `env:"TAG_RULES_FILE"`

	DryRun       bool `env:"DRY_RUN"`
	LookbackDays int  `env:"LOOKBACK_DAYS" validate:"min=1,max=365"`

	PostgresDSN  string   `env:"POSTGRES_DSN"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" validate:"required_with=KafkaBrokers"`

	Artifact     Artifact
	Log          Log
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// API is the configuration of the run report service.
type API struct {
	HTTPAddr       string `env:"HTTP_ADDR" validate:"required"`
	PostgresDSN    string `env:"POSTGRES_DSN" validate:"required"`
	CacheWarmLimit int    `env:"CACHE_WARM_LIMIT"`

	Log          Log
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Load() (Importer, error) { return LoadFrom(DefaultEnvFile) }

// LoadFrom reads the environment, falling back to envFile when it exists.
// Environment variables win over the file.
func LoadFrom(envFile string) (Importer, error) {
	v, err := newViper(envFile)
	if err != nil {
		return Importer{}, err
	}
	v.SetDefault("SHOPIFY_API_VERSION", "2024-04")
	v.SetDefault("EVERSTOX_API_HOST", "api.demo.everstox.com")
	v.SetDefault("DRY_RUN", true)
	v.SetDefault("KAFKA_TOPIC", "everstox.orders")
	v.SetDefault("ARTIFACT_PREFIX", "orderbridge")
	v.SetDefault("ARTIFACT_REGION", "us-east-1")

	cfg := Importer{
		ShopifyStore:      v.GetString("SHOPIFY_STORE"),
		ShopifyToken:      v.GetString("SHOPIFY_TOKEN"),
		ShopifyAPIVersion: v.GetString("SHOPIFY_API_VERSION"),
		EverstoxShopID:    v.GetString("EVERSTOX_SHOP_ID"),
		EverstoxAPIHost:   v.GetString("EVERSTOX_API_HOST"),
		EverstoxAPIToken:  v.GetString("EVERSTOX_API_TOKEN"),
		TagWhitelist:      v.GetString("TAG_WHITELIST"),
		TagBlacklist:      v.GetString("TAG_BLACKLIST"),
		TagRulesFile:      v.GetString("TAG_RULES_FILE"),
		DryRun:            v.GetBool("DRY_RUN"),
		LookbackDays:      getInt(v, "LOOKBACK_DAYS", 14, 1),
		PostgresDSN:       v.GetString("POSTGRES_DSN"),
		KafkaBrokers:      tags.SplitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        v.GetString("KAFKA_TOPIC"),
		Artifact: Artifact{
			Bucket:    v.GetString("ARTIFACT_BUCKET"),
			Prefix:    v.GetString("ARTIFACT_PREFIX"),
			Endpoint:  v.GetString("ARTIFACT_ENDPOINT"),
			Region:    v.GetString("ARTIFACT_REGION"),
			AccessKey: v.GetString("ARTIFACT_ACCESS_KEY"),
			SecretKey: v.GetString("ARTIFACT_SECRET_KEY"),
		},
		Log:          loadLog(v),
		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	if err := check(cfg); err != nil {
		return Importer{}, err
	}
	return cfg, nil
}

func LoadAPI() (API, error) { return LoadAPIFrom(DefaultEnvFile) }

func LoadAPIFrom(envFile string) (API, error) {
	v, err := newViper(envFile)
	if err != nil {
		return API{}, err
	}
	v.SetDefault("HTTP_ADDR", ":8081")

	cfg := API{
		HTTPAddr:       v.GetString("HTTP_ADDR"),
		PostgresDSN:    v.GetString("POSTGRES_DSN"),
		CacheWarmLimit: getInt(v, "CACHE_WARM_LIMIT", 100, 0),
		Log:            loadLog(v),
		OTLPEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	if err := check(cfg); err != nil {
		return API{}, err
	}
	return cfg, nil
}

// Rules merges the inline tag lists with the rules file, if one is set.
func (c Importer) Rules() (tags.Rules, error) {
	rules := tags.RulesFromCSV(c.TagWhitelist, c.TagBlacklist)
	if c.TagRulesFile == "" {
		return rules, nil
	}
	fromFile, err := tags.LoadRulesFile(c.TagRulesFile)
	if err != nil {
		return tags.Rules{}, err
	}
	return rules.Merge(fromFile), nil
}

func newViper(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	if envFile == "" {
		return v, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("stat %s: %w", envFile, err)
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	return v, nil
}

func loadLog(v *viper.Viper) Log {
	return Log{
		Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
		Format: strings.ToLower(v.GetString("LOG_FORMAT")),
	}
}

// getInt keeps def for anything that is not an integer >= floor.
func getInt(v *viper.Viper, key string, def, floor int) int {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < floor {
		return def
	}
	return n
}

var validate = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New(validator.WithRequiredStructEnabled())
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return vd
}

// check turns validation failures into "set X" / "invalid X" messages.
func check(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_with":
			msgs = append(msgs, "set "+fe.Field())
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: want one of %s", fe.Field(), fe.Value(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s %v", fe.Field(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
