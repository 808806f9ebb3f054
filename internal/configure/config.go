package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

func New() *Config {
	initLogging("info")

	config := viper.New()

	checkErr(config.MergeConfigMap(defaultSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Bool("noheader", false, "Disable the startup header")
	pflag.String("level", "info", "Log level")

	pflag.Float64("quality", 90, "Encode quality, 1-100")
	pflag.Int("speed", 4, "AVIF encoder speed, 1-10, lower is slower")
	pflag.String("filter", "lanczos3", "Resampling filter")

	pflag.String("addr", "0.0.0.0:3000", "Socket to bind the HTTP server")
	pflag.String("images", "images", "Directory of images served by name")
	pflag.Int("concurrency", 50, "Maximum concurrent conversions")

	pflag.Parse()

	checkErr(config.BindPFlag("config", pflag.Lookup("config")))
	checkErr(config.BindPFlag("noheader", pflag.Lookup("noheader")))
	checkErr(config.BindPFlag("level", pflag.Lookup("level")))
	checkErr(config.BindPFlag("encode.quality", pflag.Lookup("quality")))
	checkErr(config.BindPFlag("encode.speed", pflag.Lookup("speed")))
	checkErr(config.BindPFlag("encode.filter", pflag.Lookup("filter")))
	checkErr(config.BindPFlag("server.bind", pflag.Lookup("addr")))
	checkErr(config.BindPFlag("server.image_dir", pflag.Lookup("images")))
	checkErr(config.BindPFlag("server.concurrency", pflag.Lookup("concurrency")))

	// File
	config.SetConfigFile(config.GetString("config"))
	config.AddConfigPath(".")
	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	}

	bindEnvs(config, Config{})

	// Environment
	config.AutomaticEnv()
	config.SetEnvPrefix("IMGSIZER")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)

	c := &Config{}
	checkErr(config.Unmarshal(&c))

	initLogging(c.Level)

	return c
}

// defaultSettings marshals the zero-value defaults through a scratch viper so
// they merge under the same keys the file and env layers use.
func defaultSettings() map[string]interface{} {
	b, _ := json.Marshal(Config{
		ConfigFile: "config.yaml",
	})
	tmp := viper.New()
	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(bytes.NewReader(b)))

	return tmp.AllSettings()
}

func bindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch v.Kind() {
		case reflect.Struct:
			bindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`

	Encode struct {
		Quality float64 `mapstructure:"quality" json:"quality"`
		Speed   int     `mapstructure:"speed" json:"speed"`
		Filter  string  `mapstructure:"filter" json:"filter"`
	} `mapstructure:"encode" json:"encode"`

	Server struct {
		Bind        string `mapstructure:"bind" json:"bind"`
		ImageDir    string `mapstructure:"image_dir" json:"image_dir"`
		Concurrency int    `mapstructure:"concurrency" json:"concurrency"`
	} `mapstructure:"server" json:"server"`

	Health struct {
		Bind    string `mapstructure:"bind" json:"bind"`
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
	} `mapstructure:"health" json:"health"`

	Monitoring struct {
		Bind    string `mapstructure:"bind" json:"bind"`
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Labels  Labels `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`
}

type Labels []struct {
	Key   string `mapstructure:"key" json:"key"`
	Value string `mapstructure:"value" json:"value"`
}

func (l Labels) ToPrometheus() prometheus.Labels {
	mp := prometheus.Labels{}

	for _, v := range l {
		mp[v.Key] = v.Value
	}

	return mp
}
