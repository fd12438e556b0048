package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/pkg/mailclient"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"gopkg.in/yaml.v3"
)

const (
	ProviderSMTP = "smtp"
	ProviderNoop = "noop"
)

// ConfigHTTPServer struct for HTTP ConfigTransport configuration
type ConfigHTTPServer struct {
	Port int `yaml:"port" validate:"required,min=1,max=65535"`
}

// ConfigTransport is a configuration for transport: HTTP, gRPC or anything
type ConfigTransport struct {
	HTTP ConfigHTTPServer `yaml:"http"`
}

type ConfigCatalog struct {
	// Path to JSON or YAML file, format is chosen by the extension.
	Path string `yaml:"path" validate:"required"`
}

// ConfigRelay selects the backend. Relay fields are only checked when provider is smtp.
type ConfigRelay struct {
	Provider         string `yaml:"provider" validate:"required,oneof=smtp noop"`
	mailclient.Relay `yaml:",inline" validate:"-"`
}

type ConfigSession struct {
	// VerifyLogin makes one trial connection to the relay on login.
	VerifyLogin bool          `yaml:"verifyLogin"`
	MaxIdle     time.Duration `yaml:"maxIdle" validate:"min=0"`
	MaxSessions int           `yaml:"maxSessions" validate:"min=0"`
}

type ConfigDispatch struct {
	MaxParallel    int           `yaml:"maxParallel" validate:"min=1"`
	Dedupe         bool          `yaml:"dedupe"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout" validate:"min=0"`
}

type ConfigComposer struct {
	DefaultTemplate string                               `yaml:"defaultTemplate"`
	Templates       map[string]composesvc.TemplateConfig `yaml:"templates" validate:"-"`
}

type ConfigTracing struct {
	// JaegerEndpoint empty means spans are not exported.
	JaegerEndpoint string `yaml:"jaegerEndpoint"`
	Environment    string `yaml:"environment"`
}

// Config contains application config
type Config struct {
	Transport ConfigTransport `yaml:"transport"`
	Catalog   ConfigCatalog   `yaml:"catalog"`
	Relay     ConfigRelay     `yaml:"relay"`
	Session   ConfigSession   `yaml:"session"`
	Dispatch  ConfigDispatch  `yaml:"dispatch"`
	Composer  ConfigComposer  `yaml:"composer"`
	Tracing   ConfigTracing   `yaml:"tracing"`
}

// DefaultConfig is used for every key not written in the config file.
func DefaultConfig() Config {
	return Config{
		Transport: ConfigTransport{
			HTTP: ConfigHTTPServer{Port: 3000},
		},
		Catalog: ConfigCatalog{
			Path: "data/courses.json",
		},
		Relay: ConfigRelay{
			Provider: ProviderSMTP,
			Relay: mailclient.Relay{
				Host:    "smtp.gmail.com",
				Port:    465,
				TLSMode: mailclient.TLSImplicit,
			},
		},
		Session: ConfigSession{
			MaxIdle:     30 * time.Minute,
			MaxSessions: 64,
		},
		Dispatch: ConfigDispatch{
			MaxParallel:    1,
			AttemptTimeout: 30 * time.Second,
		},
		Composer: ConfigComposer{
			DefaultTemplate: composesvc.TemplateInvitation,
		},
		Tracing: ConfigTracing{
			Environment: "development",
		},
	}
}

// LoadConfig reads the YAML file on top of DefaultConfig.
func LoadConfig(configFileName string) (cfg Config, err error) {
	fileContent, err := os.ReadFile(configFileName)
	if err != nil {
		err = fmt.Errorf("error read file config %s: %w", configFileName, err)
		return
	}

	cfg, err = ParseConfig(fileContent)
	if err != nil {
		err = fmt.Errorf("error config %s: %w", configFileName, err)
	}

	return
}

func ParseConfig(fileContent []byte) (cfg Config, err error) {
	cfg = DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(fileContent))
	dec.KnownFields(false)
	err = dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return
	}

	err = validator.Validate(cfg)
	return
}
